package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/menjalnica/internal/model"
)

// dateFormat is how meeting dates are stored. Meetings are day-granular.
const dateFormat = "2006-01-02"

// CreateMeeting creates a meeting skeleton proposed by the suggester.
// secondMeeting marks the return leg of a temporary transaction, whose date
// is system-determined and not user-editable.
func CreateMeeting(ctx context.Context, db *sql.DB, date time.Time, location string, suggesterID int64, secondMeeting bool) (*model.Meeting, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO meetings (date, location, suggester_id, second_meeting) VALUES (?, ?, ?, ?)`,
		date.Format(dateFormat), location, suggesterID, secondMeeting,
	)
	if err != nil {
		return nil, fmt.Errorf("creating meeting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting meeting id: %w", err)
	}

	return GetMeeting(ctx, db, id)
}

// GetMeeting returns a meeting by ID with its edition counts and
// confirmations populated.
func GetMeeting(ctx context.Context, db *sql.DB, id int64) (*model.Meeting, error) {
	m := &model.Meeting{}
	var date string
	err := db.QueryRowContext(ctx,
		`SELECT id, date, location, agreed, suggester_id, second_meeting, created_at, deleted_at
		 FROM meetings WHERE id = ?`, id,
	).Scan(&m.ID, &date, &m.Location, &m.Agreed, &m.SuggesterID, &m.SecondMeeting, &m.CreatedAt, &m.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting meeting: %w", err)
	}

	m.Date, err = time.Parse(dateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("parsing meeting date: %w", err)
	}

	m.Editions = map[int64]int{}
	rows, err := db.QueryContext(ctx,
		`SELECT user_id, editions FROM meeting_editions WHERE meeting_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting meeting editions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var editions int
		if err := rows.Scan(&userID, &editions); err != nil {
			return nil, fmt.Errorf("scanning meeting edition: %w", err)
		}
		m.Editions[userID] = editions
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.Conducted = map[int64]bool{}
	rows, err = db.QueryContext(ctx,
		`SELECT user_id, conducted FROM meeting_confirmations WHERE meeting_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting meeting confirmations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var conducted bool
		if err := rows.Scan(&userID, &conducted); err != nil {
			return nil, fmt.Errorf("scanning meeting confirmation: %w", err)
		}
		m.Conducted[userID] = conducted
	}
	return m, rows.Err()
}

// GetMeetings returns the meetings with the given IDs, in the given order.
func GetMeetings(ctx context.Context, db *sql.DB, ids []int64) ([]model.Meeting, error) {
	meetings := make([]model.Meeting, 0, len(ids))
	for _, id := range ids {
		m, err := GetMeeting(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("meeting %d not found", id)
		}
		meetings = append(meetings, *m)
	}
	return meetings, nil
}

// EditMeeting applies one user suggestion in a single transaction: the
// location is overwritten, the date only when newDate is non-nil, the user
// becomes the current suggester and their edition count goes up by one.
func EditMeeting(ctx context.Context, db *sql.DB, id int64, location string, newDate *time.Time, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if newDate != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE meetings SET location = ?, date = ?, suggester_id = ? WHERE id = ?`,
			location, newDate.Format(dateFormat), userID, id,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE meetings SET location = ?, suggester_id = ? WHERE id = ?`,
			location, userID, id,
		)
	}
	if err != nil {
		return fmt.Errorf("editing meeting: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meeting_editions (meeting_id, user_id, editions) VALUES (?, ?, 1)
		 ON CONFLICT (meeting_id, user_id) DO UPDATE SET editions = editions + 1`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("recording meeting edition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing meeting edit: %w", err)
	}
	return nil
}

// SetMeetingAgreed locks in the current suggestion. There is no way back.
func SetMeetingAgreed(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE meetings SET agreed = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("agreeing to meeting: %w", err)
	}
	return nil
}

// SetMeetingConducted records that the user confirmed the meeting took place.
// Returns whether this changed the stored state, so callers can avoid
// re-triggering downstream custody transfer on a repeated confirmation.
func SetMeetingConducted(ctx context.Context, db *sql.DB, id, userID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO meeting_confirmations (meeting_id, user_id, conducted) VALUES (?, ?, 1)
		 ON CONFLICT (meeting_id, user_id) DO UPDATE SET conducted = 1 WHERE conducted = 0`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("recording meeting confirmation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("recording meeting confirmation: %w", err)
	}
	return n > 0, nil
}
