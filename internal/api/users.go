package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// UsersHandler handles user listing and self-service endpoints.
type UsersHandler struct {
	DB   *sql.DB
	Gate *trading.AccessGate
}

type permissionsResponse struct {
	IsAdmin   bool `json:"is_admin"`
	IsFrozen  bool `json:"is_frozen"`
	CanLend   bool `json:"can_lend"`
	CanBorrow bool `json:"can_borrow"`
}

// List handles GET /api/users (admin only).
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Permissions handles GET /api/me/permissions.
func (h *UsersHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var resp permissionsResponse
	var err error
	if resp.IsAdmin, err = h.Gate.IsAdmin(r.Context(), claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resp.IsFrozen, err = h.Gate.IsFrozen(r.Context(), claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resp.CanLend, err = h.Gate.CanLend(r.Context(), claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resp.CanBorrow, err = h.Gate.CanBorrow(r.Context(), claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

// RequestUnfreeze handles POST /api/me/request-unfreeze. Only a frozen user
// can ask; asking twice is a no-op.
func (h *UsersHandler) RequestUnfreeze(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch user.Status {
	case model.StatusRequestUnfreeze:
		jsonResponse(w, http.StatusOK, map[string]string{"message": "unfreeze already requested"})
		return
	case model.StatusFrozen:
	default:
		jsonError(w, http.StatusConflict, "account is not frozen")
		return
	}

	if err := store.SetUserStatus(r.Context(), h.DB, claims.UserID, model.StatusRequestUnfreeze); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	slog.Info("user requested unfreeze", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "unfreeze requested"})
}
