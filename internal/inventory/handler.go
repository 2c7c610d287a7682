package inventory

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

func (h *Handler) CreateSheet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var dto CreateSheetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet, err := h.Service.CreateSheet(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sheet)
}

func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	sheetID, err := h.sheetIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sheet id")
		return
	}

	sheet, err := h.Service.GetSheet(r.Context(), actor, sheetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
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

	sheets, err := h.Service.ListSheets(r.Context(), actor, storeID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"sheets": sheets})
}

func (h *Handler) UpdateLines(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	sheetID, err := h.sheetIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sheet id")
		return
	}

	var dto UpdateLinesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet, err := h.Service.UpdateLines(r.Context(), actor, sheetID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) RequestApproval(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	sheetID, err := h.sheetIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sheet id")
		return
	}

	var dto RequestApprovalDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sheet, err := h.Service.RequestApproval(r.Context(), actor, sheetID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	sheetID, err := h.sheetIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sheet id")
		return
	}

	sheet, err := h.Service.Approve(r.Context(), actor, sheetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	sheetID, err := h.sheetIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid sheet id")
		return
	}

	var dto RejectSheetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sheet, err := h.Service.Reject(r.Context(), actor, sheetID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

func (h *Handler) sheetIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "sheetID"), 10, 64)
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
