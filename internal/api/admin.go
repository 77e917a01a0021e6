package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// AdminHandler handles the admin dashboard: alerts, user moderation and
// system configuration.
type AdminHandler struct {
	DB         *sql.DB
	Alerts     *trading.AlertAggregator
	Negotiator *trading.Negotiator
	Rules      *trading.RuleEngine
}

type alertsResponse struct {
	UnfreezeRequests     []trading.Alert `json:"unfreeze_requests"`
	FreezeSuggestions    []trading.Alert `json:"freeze_suggestions"`
	PendingItemApprovals []trading.Alert `json:"pending_item_approvals"`
}

// configKeys lists the settings an admin may change through the API.
var configKeys = map[string]bool{
	model.ConfigMaxMeetingEdits:           true,
	model.ConfigMaxIncompleteTransactions: true,
	model.ConfigMaxTransactionsPerWeek:    true,
	model.ConfigMaxBorrowOverLend:         true,
}

// GetAlerts handles GET /api/admin/alerts.
func (h *AdminHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	var resp alertsResponse
	var err error
	if resp.UnfreezeRequests, err = h.Alerts.UnfreezeRequests(r.Context()); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resp.FreezeSuggestions, err = h.Alerts.FreezeSuggestions(r.Context()); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if resp.PendingItemApprovals, err = h.Alerts.PendingItemApprovals(r.Context()); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}

// FreezeUser handles POST /api/admin/users/{id}/freeze.
func (h *AdminHandler) FreezeUser(w http.ResponseWriter, r *http.Request) {
	h.setUserStatus(w, r, model.StatusFrozen, "user frozen")
}

// UnfreezeUser handles POST /api/admin/users/{id}/unfreeze. Also clears a
// pending unfreeze request.
func (h *AdminHandler) UnfreezeUser(w http.ResponseWriter, r *http.Request) {
	h.setUserStatus(w, r, model.StatusNormal, "user unfrozen")
}

// PromoteUser handles POST /api/admin/users/{id}/promote.
func (h *AdminHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	h.setUserStatus(w, r, model.StatusAdmin, "user promoted")
}

func (h *AdminHandler) setUserStatus(w http.ResponseWriter, r *http.Request, status, message string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if user.Status == model.StatusAdmin && status == model.StatusFrozen {
		jsonError(w, http.StatusConflict, "cannot freeze an admin")
		return
	}

	if err := store.SetUserStatus(r.Context(), h.DB, id, status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	slog.Info("user status changed", "user", user.Username, "status", status)
	jsonResponse(w, http.StatusOK, map[string]string{"message": message})
}

// GetConfig handles GET /api/admin/config.
func (h *AdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := store.AllSettings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	config := map[string]string{}
	for key := range configKeys {
		config[key] = settings[key]
	}
	jsonResponse(w, http.StatusOK, config)
}

// UpdateConfig handles PUT /api/admin/config. Changed thresholds take
// effect immediately; the rule engine and negotiator reload their values.
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	for key, value := range req {
		if !configKeys[key] {
			jsonError(w, http.StatusBadRequest, "unknown config key: "+key)
			return
		}
		if _, err := strconv.Atoi(value); err != nil {
			jsonError(w, http.StatusBadRequest, "config value must be an integer: "+key)
			return
		}
	}

	for key, value := range req {
		if err := store.SetSetting(r.Context(), h.DB, key, value); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to store config")
			return
		}
	}

	settings, err := store.AllSettings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Negotiator.Reload(settings)
	h.Rules.Reload(settings)

	slog.Info("configuration updated", "keys", len(req))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "configuration updated"})
}
