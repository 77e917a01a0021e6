package model

import "time"

// Transaction bundles one or two trades with one or two meetings. A single
// trade makes it one-way (a plain lend or gift), two trades make it a mutual
// exchange. A single meeting makes it permanent (ownership transfers for
// good), two meetings make it temporary (hand-off plus return).
type Transaction struct {
	ID         int64      `json:"id"`
	TradeIDs   []int64    `json:"trade_ids"`
	MeetingIDs []int64    `json:"meeting_ids"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// OneWay reports whether the transaction consists of a single trade.
func (t *Transaction) OneWay() bool {
	return len(t.TradeIDs) == 1
}

// Permanent reports whether ownership transfers for good (single meeting).
func (t *Transaction) Permanent() bool {
	return len(t.MeetingIDs) == 1
}

// Transaction statuses, derived rather than stored.
const (
	TransactionOpen       = "open"
	TransactionIncomplete = "incomplete"
	TransactionComplete   = "complete"
)
