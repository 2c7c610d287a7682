package disposal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/minhopark/store-portal/internal/auth"
	"github.com/minhopark/store-portal/internal/authz"
	"github.com/minhopark/store-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid disposal id")
		return
	}

	req, err := h.Service.GetRequest(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	storeID, err := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)
	if err != nil || storeID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "store_id query parameter is required")
		return
	}

	limit, offset := paginationParams(r)

	requests, err := h.Service.ListRequests(r.Context(), actor, storeID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"disposals": requests})
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid disposal id")
		return
	}

	var dto UpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.UpdateRequest(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) RequestApproval(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid disposal id")
		return
	}

	req, err := h.Service.RequestApproval(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid disposal id")
		return
	}

	req, err := h.Service.Approve(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	id, err := h.idParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid disposal id")
		return
	}

	var dto RejectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Reject(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "disposalID"), 10, 64)
}

func actorFromRequest(r *http.Request) (*authz.Actor, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return user.Actor(), true
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
