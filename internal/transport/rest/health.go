package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

type componentHealth struct {
	Healthy    bool   `json:"healthy"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	CheckedAt  time.Time                  `json:"checked_at"`
	Components map[string]componentHealth `json:"components"`
}

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// pingHandler answers liveness probes without touching any dependency.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// healthCheckHandler answers readiness probes; unhealthy when the database
// does not respond within the probe timeout.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	pg := componentHealth{
		Healthy:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		pg.Message = err.Error()
	}

	resp := healthResponse{
		Status:     "healthy",
		CheckedAt:  time.Now(),
		Components: map[string]componentHealth{"postgres": pg},
	}

	status := http.StatusOK
	if !pg.Healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
