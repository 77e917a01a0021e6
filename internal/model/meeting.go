package model

import "time"

// Meeting is one negotiated physical hand-off. Editions counts how many
// suggestions each user has made, Conducted records which users confirmed
// the meeting took place in real life.
type Meeting struct {
	ID            int64          `json:"id"`
	Date          time.Time      `json:"date"`
	Location      string         `json:"location"`
	Agreed        bool           `json:"agreed"`
	SuggesterID   int64          `json:"suggester_id"`
	SecondMeeting bool           `json:"second_meeting"`
	Editions      map[int64]int  `json:"editions,omitempty"`
	Conducted     map[int64]bool `json:"conducted,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
}

// EditionsBy returns how many times the user has edited this meeting.
func (m *Meeting) EditionsBy(userID int64) int {
	return m.Editions[userID]
}

// ConductedBy reports whether the user confirmed the meeting took place.
func (m *Meeting) ConductedBy(userID int64) bool {
	return m.Conducted[userID]
}

// IsComplete reports whether at least two distinct users have confirmed the
// meeting and no confirmation has been withdrawn.
func (m *Meeting) IsComplete() bool {
	if len(m.Conducted) < 2 {
		return false
	}
	for _, ok := range m.Conducted {
		if !ok {
			return false
		}
	}
	return true
}

// Clear reports whether the meeting is agreed and confirmed by both parties.
func (m *Meeting) Clear() bool {
	return m.Agreed && m.IsComplete()
}
