package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/menjalnica/internal/auth"
	"github.com/erazemk/menjalnica/internal/store"
	"github.com/erazemk/menjalnica/internal/trading"
)

// MeetingsHandler handles meeting negotiation endpoints.
type MeetingsHandler struct {
	DB          *sql.DB
	Negotiator  *trading.Negotiator
	Coordinator *trading.Coordinator
}

type editMeetingRequest struct {
	Location string `json:"location"`
	Date     string `json:"date"`
}

// Edit handles PUT /api/meetings/{id}. Either party can counter-suggest a
// location, and for first meetings a date, until the meeting is agreed or
// the user runs out of edits.
func (h *MeetingsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	claims, meetingID, ok := h.participant(w, r)
	if !ok {
		return
	}

	var req editMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location == "" {
		jsonError(w, http.StatusBadRequest, "location required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	dateApplied, err := h.Negotiator.ProposeOrEdit(r.Context(), claims.UserID, meetingID, req.Location, date)
	switch {
	case errors.Is(err, trading.ErrMeetingDoesNotExist):
		jsonError(w, http.StatusNotFound, "meeting not found")
		return
	case errors.Is(err, trading.ErrTooManyEditions):
		jsonError(w, http.StatusConflict, "edit limit reached")
		return
	case errors.Is(err, trading.ErrEditAgreedMeeting):
		jsonError(w, http.StatusConflict, "meeting is already agreed")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("meeting edited", "meeting", meetingID, "user", claims.Username, "date_applied", dateApplied)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":      "suggestion recorded",
		"date_applied": dateApplied,
	})
}

// Agree handles POST /api/meetings/{id}/agree. The current suggester cannot
// agree with their own suggestion.
func (h *MeetingsHandler) Agree(w http.ResponseWriter, r *http.Request) {
	claims, meetingID, ok := h.participant(w, r)
	if !ok {
		return
	}

	meeting, err := store.GetMeeting(r.Context(), h.DB, meetingID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if meeting == nil {
		jsonError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if meeting.SuggesterID == claims.UserID {
		jsonError(w, http.StatusConflict, "cannot agree with your own suggestion")
		return
	}

	if err := h.Negotiator.Agree(r.Context(), meetingID); err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("meeting agreed", "meeting", meetingID, "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "meeting agreed"})
}

// Conducted handles POST /api/meetings/{id}/conducted. Custody transfer only
// runs on the first confirmation; repeating the call changes nothing.
func (h *MeetingsHandler) Conducted(w http.ResponseWriter, r *http.Request) {
	claims, meetingID, ok := h.participant(w, r)
	if !ok {
		return
	}

	changed, err := h.Negotiator.MarkConducted(r.Context(), meetingID, claims.UserID)
	if errors.Is(err, trading.ErrMeetingDoesNotExist) {
		jsonError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if changed {
		if err := h.Coordinator.OnMeetingConfirmed(r.Context(), meetingID); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to advance transaction")
			return
		}
	}

	slog.Info("meeting confirmed", "meeting", meetingID, "user", claims.Username, "changed", changed)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "confirmation recorded"})
}

// participant parses the meeting id and verifies the caller is a party of
// the owning transaction.
func (h *MeetingsHandler) participant(w http.ResponseWriter, r *http.Request) (claims *auth.Claims, meetingID int64, ok bool) {
	claims = GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return nil, 0, false
	}

	meetingID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid meeting id")
		return nil, 0, false
	}

	involved, err := h.Coordinator.MeetingParticipant(r.Context(), meetingID, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return nil, 0, false
	}
	if !involved {
		jsonError(w, http.StatusForbidden, "not a participant of this meeting")
		return nil, 0, false
	}
	return claims, meetingID, true
}
