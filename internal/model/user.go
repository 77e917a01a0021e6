package model

import "time"

// User represents a registered account.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Account statuses.
const (
	StatusAdmin           = "admin"
	StatusNormal          = "normal"
	StatusFrozen          = "frozen"
	StatusRequestUnfreeze = "requestUnfreeze"
)
