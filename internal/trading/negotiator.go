package trading

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// DefaultMaxMeetingEdits is used until configuration is loaded.
const DefaultMaxMeetingEdits = 3

// Negotiator drives the meeting state machine:
// proposed -> edited (bounded per user) -> agreed -> conducted by both.
// Agreeing is a one-way gate; a conducted-by-both meeting is terminal.
type Negotiator struct {
	db            *sql.DB
	editThreshold int
}

// NewNegotiator creates a negotiator with thresholds from the given config.
func NewNegotiator(db *sql.DB, config map[string]string) *Negotiator {
	n := &Negotiator{db: db, editThreshold: DefaultMaxMeetingEdits}
	n.Reload(config)
	return n
}

// Reload pulls current threshold values from configuration. Called again
// whenever an admin edits the settings.
func (n *Negotiator) Reload(config map[string]string) {
	if v, err := strconv.Atoi(config[model.ConfigMaxMeetingEdits]); err == nil {
		n.editThreshold = v
	}
}

// ProposeOrEdit applies a user's suggestion for a meeting. The location is
// always overwritten; the date only for first meetings, since the return
// meeting of a temporary transaction is dated by the system. Reports whether
// a first meeting was edited, so callers can pick the right follow-up flow.
func (n *Negotiator) ProposeOrEdit(ctx context.Context, userID, meetingID int64, location string, date time.Time) (bool, error) {
	meeting, err := store.GetMeeting(ctx, n.db, meetingID)
	if err != nil {
		return false, err
	}
	if meeting == nil {
		return false, ErrMeetingDoesNotExist
	}

	if meeting.EditionsBy(userID) > n.editThreshold {
		return false, ErrTooManyEditions
	}
	if meeting.Agreed {
		return false, ErrEditAgreedMeeting
	}

	var newDate *time.Time
	if !meeting.SecondMeeting {
		newDate = &date
	}
	if err := store.EditMeeting(ctx, n.db, meetingID, location, newDate, userID); err != nil {
		return false, err
	}

	return !meeting.SecondMeeting, nil
}

// Agree locks in the current suggestion. The engine does not check who is
// agreeing; callers must verify the actor is not the current suggester.
func (n *Negotiator) Agree(ctx context.Context, meetingID int64) error {
	meeting, err := store.GetMeeting(ctx, n.db, meetingID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return ErrMeetingDoesNotExist
	}
	return store.SetMeetingAgreed(ctx, n.db, meetingID)
}

// MarkConducted records that the user confirmed the meeting took place.
// Idempotent; reports whether the stored state changed, so callers only
// trigger custody transfer on the first confirmation.
func (n *Negotiator) MarkConducted(ctx context.Context, meetingID, userID int64) (bool, error) {
	meeting, err := store.GetMeeting(ctx, n.db, meetingID)
	if err != nil {
		return false, err
	}
	if meeting == nil {
		return false, ErrMeetingDoesNotExist
	}
	return store.SetMeetingConducted(ctx, n.db, meetingID, userID)
}
