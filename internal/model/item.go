package model

import "time"

// Item represents a listed item. OwnerID is the legal owner, HolderID the
// current physical possessor; the two diverge while the item is lent out.
// Items start invisible and only become tradeable once approved by an admin.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     int64      `json:"owner_id"`
	HolderID    int64      `json:"holder_id"`
	Visible     bool       `json:"visible"`
	Reserved    bool       `json:"reserved"`
	PhotoMime   string     `json:"photo_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// IsLent reports whether the item is away from its owner.
func (i *Item) IsLent() bool {
	return i.HolderID != i.OwnerID
}
