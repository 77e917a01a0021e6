package trading

import (
	"context"
	"testing"

	"github.com/erazemk/menjalnica/internal/db"
	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

func TestItemQueryEmptyMatchesEverything(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	seedItem(t, database, "One", alice.ID)
	deleted := seedItem(t, database, "Two", alice.ID)
	store.DeleteItem(ctx, database, deleted.ID)

	items, err := NewItemQuery(database).Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestItemQueryPredicatesNarrow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")

	visible := seedItem(t, database, "Visible", alice.ID)
	store.SetItemVisible(ctx, database, visible.ID, true)
	seedItem(t, database, "Hidden", alice.ID)
	bobs := seedItem(t, database, "Bobs", bob.ID)
	store.SetItemVisible(ctx, database, bobs.ID, true)

	names, err := NewItemQuery(database).
		NotDeleted().
		OnlyApproved().
		OnlyOwnedBy(alice.ID).
		FetchNames(ctx)
	if err != nil {
		t.Fatalf("FetchNames: %v", err)
	}
	if len(names) != 1 || names[0] != "Visible" {
		t.Errorf("expected [Visible], got %v", names)
	}

	ids, _ := NewItemQuery(database).ExceptOwnedBy(alice.ID).FetchIDs(ctx)
	if len(ids) != 1 || ids[0] != bobs.ID {
		t.Errorf("expected only bob's item, got %v", ids)
	}
}

func TestItemQueryHeldByOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	transaction, item := seedTransaction(t, database, alice.ID, bob.ID, false, date(t, "2026-09-10"))

	c := NewCoordinator(database)
	clearMeeting(t, database, transaction.MeetingIDs[0], alice.ID, bob.ID)
	c.OnMeetingConfirmed(ctx, transaction.MeetingIDs[0])

	// The item is now in the borrower's hands.
	ids, err := NewItemQuery(database).HeldByOwner().FetchIDs(ctx)
	if err != nil {
		t.Fatalf("FetchIDs: %v", err)
	}
	for _, id := range ids {
		if id == item.ID {
			t.Error("lent item should not match HeldByOwner")
		}
	}

	held, _ := NewItemQuery(database).OnlyHeldBy(bob.ID).FetchIDs(ctx)
	if len(held) != 1 || held[0] != item.ID {
		t.Errorf("expected item held by bob, got %v", held)
	}
}

func TestItemQueryWishlist(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")

	wished := seedItem(t, database, "Wished", alice.ID)
	other := seedItem(t, database, "Other", alice.ID)
	store.AddWish(ctx, database, bob.ID, wished.ID)

	ids, err := NewItemQuery(database).InWishlistOf(bob.ID).FetchIDs(ctx)
	if err != nil {
		t.Fatalf("FetchIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != wished.ID {
		t.Errorf("expected wished item, got %v", ids)
	}

	ids, _ = NewItemQuery(database).NotInWishlistOf(bob.ID).FetchIDs(ctx)
	if len(ids) != 1 || ids[0] != other.ID {
		t.Errorf("expected only the unwished item, got %v", ids)
	}
}

func TestNotInWishlistOfWithoutWishlist(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	carol := seedUser(t, database, "carol")
	seedItem(t, database, "One", alice.ID)
	seedItem(t, database, "Two", alice.ID)

	// carol has no wishlist, so nothing gets excluded.
	ids, err := NewItemQuery(database).NotInWishlistOf(carol.ID).FetchIDs(ctx)
	if err != nil {
		t.Fatalf("FetchIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected all items for a user without a wishlist, got %v", ids)
	}
}

func TestItemQueryReservedAndFrozenOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	frozen := seedUser(t, database, "bob")
	store.SetUserStatus(ctx, database, frozen.ID, model.StatusFrozen)

	free := seedItem(t, database, "Free", alice.ID)
	reserved := seedItem(t, database, "Reserved", alice.ID)
	store.SetItemReserved(ctx, database, reserved.ID, true)
	seedItem(t, database, "FrozenOwned", frozen.ID)

	ids, err := NewItemQuery(database).
		NotReserved().
		OwnedByUnfrozenUser().
		FetchIDs(ctx)
	if err != nil {
		t.Fatalf("FetchIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != free.ID {
		t.Errorf("expected only the free item, got %v", ids)
	}
}
