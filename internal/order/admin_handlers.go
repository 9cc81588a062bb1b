package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

// AdminHandlers exposes back-office order management endpoints.
type AdminHandlers struct {
	Svc *Service
	Log zerolog.Logger
}

// List handles GET /admin/orders.
func (h *AdminHandlers) List(w http.ResponseWriter, r *http.Request) {
	p := common.ParsePagination(r)
	orders, err := h.Svc.List(r.Context(), p)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"orders": out,
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

// PatchStatus handles PATCH /admin/orders/{id}/status.
func (h *AdminHandlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	next := Status(body.Status)
	if !next.Valid() {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "unknown status", nil)
		return
	}
	updated, err := h.Svc.SetStatus(r.Context(), id, next)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			common.JSONError(w, http.StatusConflict, common.CodeConflict, "status cannot move backwards", nil)
		default:
			common.WriteError(w, err)
		}
		return
	}
	common.JSON(w, http.StatusOK, toResponse(updated))
}

// Delete handles DELETE /admin/orders/{id}.
func (h *AdminHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
