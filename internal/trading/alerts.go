package trading

import (
	"context"
	"database/sql"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// Alert is a single actionable entry on the admin dashboard.
type Alert struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AlertAggregator collects the items an administrator should act on:
// unfreeze requests, users who should be frozen and items awaiting approval.
type AlertAggregator struct {
	db    *sql.DB
	rules *RuleEngine
}

// NewAlertAggregator creates an aggregator backed by the given rule engine.
func NewAlertAggregator(db *sql.DB, rules *RuleEngine) *AlertAggregator {
	return &AlertAggregator{db: db, rules: rules}
}

// UnfreezeRequests lists frozen users who have asked to be unfrozen.
func (a *AlertAggregator) UnfreezeRequests(ctx context.Context) ([]Alert, error) {
	users, err := store.ListUsers(ctx, a.db)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, user := range users {
		if user.Status == model.StatusRequestUnfreeze {
			alerts = append(alerts, Alert{ID: user.ID, Name: user.Username})
		}
	}
	return alerts, nil
}

// FreezeSuggestions lists not yet frozen users who currently violate at
// least one lending rule.
func (a *AlertAggregator) FreezeSuggestions(ctx context.Context) ([]Alert, error) {
	users, err := store.ListUsers(ctx, a.db)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, user := range users {
		if user.Status == model.StatusFrozen || user.Status == model.StatusRequestUnfreeze {
			continue
		}
		violates, err := a.rules.ViolatesAny(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if violates {
			alerts = append(alerts, Alert{ID: user.ID, Name: user.Username})
		}
	}
	return alerts, nil
}

// PendingItemApprovals lists items waiting for approval. Items of frozen
// owners stay off the list until the owner is unfrozen.
func (a *AlertAggregator) PendingItemApprovals(ctx context.Context) ([]Alert, error) {
	items, err := NewItemQuery(a.db).
		NotDeleted().
		ExceptApproved().
		OwnedByUnfrozenUser().
		Fetch(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for i := range items {
		alerts = append(alerts, Alert{ID: items[i].ID, Name: items[i].Name})
	}
	return alerts, nil
}
