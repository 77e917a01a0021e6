package model

import "time"

// Trade is one directed item transfer: the lender hands the item to the
// borrower. A two-way exchange is two trades with the roles reversed.
type Trade struct {
	ID         int64      `json:"id"`
	LenderID   int64      `json:"lender_id"`
	BorrowerID int64      `json:"borrower_id"`
	ItemID     int64      `json:"item_id"`
	Complete   bool       `json:"complete"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
