package trading

import (
	"context"
	"testing"

	"github.com/erazemk/menjalnica/internal/db"
	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

func TestUnfreezeRequests(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	carol := seedUser(t, database, "carol")
	store.SetUserStatus(ctx, database, bob.ID, model.StatusRequestUnfreeze)
	store.SetUserStatus(ctx, database, carol.ID, model.StatusFrozen)

	a := NewAlertAggregator(database, NewRuleEngine(database, NewCoordinator(database), nil))
	alerts, err := a.UnfreezeRequests(ctx)
	if err != nil {
		t.Fatalf("UnfreezeRequests: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != bob.ID {
		t.Errorf("expected only bob, got %v", alerts)
	}
}

func TestFreezeSuggestions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	frozen := seedUser(t, database, "carol")
	store.SetUserStatus(ctx, database, frozen.ID, model.StatusFrozen)

	// alice over-borrows; a frozen violator is not suggested again.
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-10"))
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-11"))

	a := NewAlertAggregator(database, NewRuleEngine(database, NewCoordinator(database), nil))
	alerts, err := a.FreezeSuggestions(ctx)
	if err != nil {
		t.Fatalf("FreezeSuggestions: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Name != "alice" {
		t.Errorf("expected only alice, got %v", alerts)
	}
}

func TestPendingItemApprovals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	frozen := seedUser(t, database, "bob")
	store.SetUserStatus(ctx, database, frozen.ID, model.StatusFrozen)

	pending := seedItem(t, database, "Pending", alice.ID)
	approved := seedItem(t, database, "Approved", alice.ID)
	store.SetItemVisible(ctx, database, approved.ID, true)
	deleted := seedItem(t, database, "Deleted", alice.ID)
	store.DeleteItem(ctx, database, deleted.ID)
	seedItem(t, database, "FrozenOwner", frozen.ID)

	a := NewAlertAggregator(database, NewRuleEngine(database, NewCoordinator(database), nil))
	alerts, err := a.PendingItemApprovals(ctx)
	if err != nil {
		t.Fatalf("PendingItemApprovals: %v", err)
	}
	if len(alerts) != 1 || alerts[0].ID != pending.ID {
		t.Errorf("expected only the pending item, got %v", alerts)
	}
}
