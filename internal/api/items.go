package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/menjalnica/internal/imaging"
	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// ItemsHandler handles item listing, creation and approval endpoints.
type ItemsHandler struct {
	DB   *sql.DB
	Gate *trading.AccessGate
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /api/items. The default listing shows what can actually
// be requested: approved, not deleted, not reserved, in the owner's hands
// and not owned by a frozen user. Query parameters narrow or widen it:
// mine=1 lists the caller's own items regardless of approval, wishlist=1
// lists the caller's wishlist, deleted=1 (admin) lists retired items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	query := trading.NewItemQuery(h.DB)
	switch {
	case r.URL.Query().Get("mine") == "1":
		query.NotDeleted().OnlyOwnedBy(claims.UserID)
	case r.URL.Query().Get("wishlist") == "1":
		query.NotDeleted().InWishlistOf(claims.UserID)
	case r.URL.Query().Get("deleted") == "1":
		admin, err := h.Gate.IsAdmin(r.Context(), claims.UserID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !admin {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		query.OnlyDeleted()
	default:
		query.NotDeleted().
			OnlyApproved().
			NotReserved().
			HeldByOwner().
			OwnedByUnfrozenUser().
			ExceptOwnedBy(claims.UserID)
	}

	items, err := query.Fetch(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. Frozen users cannot list items. New items
// wait for admin approval before showing up in listings.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	canLend, err := h.Gate.CanLend(r.Context(), claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !canLend {
		jsonError(w, http.StatusForbidden, "account is frozen")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Description, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "item", item.Name, "owner", claims.Username)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Only the owner can edit the listing.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not the item owner")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.Name, req.Description); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}. Only the owner or an admin can
// retire an item, and not while it is reserved for a transaction.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if item.OwnerID != claims.UserID {
		admin, err := h.Gate.IsAdmin(r.Context(), claims.UserID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !admin {
			jsonError(w, http.StatusForbidden, "not the item owner")
			return
		}
	}
	if item.Reserved {
		jsonError(w, http.StatusConflict, "item is reserved for a transaction")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "item", item.Name, "by", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Approve handles POST /api/items/{id}/approve (admin only).
func (h *ItemsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.SetItemVisible(r.Context(), h.DB, id, true); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to approve item")
		return
	}

	slog.Info("item approved", "item", item.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item approved"})
}

// UploadPhoto handles PUT /api/items/{id}/photo. Only the owner can set a
// photo. Uploads are re-encoded and downscaled before storage.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not the item owner")
		return
	}

	photo, mime, err := imaging.Prepare(r.Body)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, photo, mime); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	photo, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(photo) == 0 {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(photo)
}

// AddWish handles PUT /api/wishlist/{id}.
func (h *ItemsHandler) AddWish(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := store.AddWish(r.Context(), h.DB, claims.UserID, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to add wish")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item wished"})
}

// RemoveWish handles DELETE /api/wishlist/{id}.
func (h *ItemsHandler) RemoveWish(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.RemoveWish(r.Context(), h.DB, claims.UserID, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to remove wish")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "wish removed"})
}
