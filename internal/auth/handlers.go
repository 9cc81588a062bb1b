package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
)

// Handlers exposes authentication endpoints.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}

// Me handles GET /auth/me for an authenticated request.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "missing or invalid token", nil)
		return
	}
	role, _ := common.Role(r.Context())
	common.JSON(w, http.StatusOK, map[string]string{
		"id":   userID,
		"role": role,
	})
}
