package trading

import (
	"context"
	"testing"

	"github.com/erazemk/menjalnica/internal/db"
	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

func TestAccessMissingUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	g := NewAccessGate(database, NewRuleEngine(database, NewCoordinator(database), nil))

	for name, check := range map[string]func(context.Context, int64) (bool, error){
		"IsAdmin":   g.IsAdmin,
		"IsFrozen":  g.IsFrozen,
		"CanLend":   g.CanLend,
		"CanBorrow": g.CanBorrow,
	} {
		ok, err := check(ctx, 42)
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if ok {
			t.Errorf("%s: expected false for missing user", name)
		}
	}
}

func TestFrozenUserCannotTrade(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database, "alice")
	store.SetUserStatus(ctx, database, user.ID, model.StatusFrozen)

	g := NewAccessGate(database, NewRuleEngine(database, NewCoordinator(database), nil))

	if frozen, _ := g.IsFrozen(ctx, user.ID); !frozen {
		t.Error("expected user to be frozen")
	}
	if canLend, _ := g.CanLend(ctx, user.ID); canLend {
		t.Error("frozen user must not lend")
	}
	if canBorrow, _ := g.CanBorrow(ctx, user.ID); canBorrow {
		t.Error("frozen user must not borrow")
	}

	// Requesting an unfreeze does not restore permissions.
	store.SetUserStatus(ctx, database, user.ID, model.StatusRequestUnfreeze)
	if frozen, _ := g.IsFrozen(ctx, user.ID); !frozen {
		t.Error("unfreeze request must still count as frozen")
	}
}

func TestCanBorrowAppliesBorrowRule(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")

	g := NewAccessGate(database, NewRuleEngine(database, NewCoordinator(database), nil))

	if canBorrow, _ := g.CanBorrow(ctx, alice.ID); !canBorrow {
		t.Error("fresh user should be allowed to borrow")
	}

	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-10"))
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-11"))

	if canBorrow, _ := g.CanBorrow(ctx, alice.ID); canBorrow {
		t.Error("over-borrowed user must not borrow")
	}
	if canLend, _ := g.CanLend(ctx, alice.ID); !canLend {
		t.Error("over-borrowed user may still lend")
	}

	// Lending once restores the balance.
	seedTransaction(t, database, alice.ID, bob.ID, true, date(t, "2026-09-12"))
	if canBorrow, _ := g.CanBorrow(ctx, alice.ID); !canBorrow {
		t.Error("balanced user should be allowed to borrow again")
	}
}

func TestCanBorrowDegradesWithoutRule(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")

	rules := NewRuleEngine(database, NewCoordinator(database), nil)
	delete(rules.thresholds, model.RuleNoMoreBorrowThanLend)
	g := NewAccessGate(database, rules)

	// Without the borrow rule the gate falls back to lending permission.
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-10"))
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-11"))

	if canBorrow, _ := g.CanBorrow(ctx, alice.ID); !canBorrow {
		t.Error("expected borrow check to degrade to lending permission")
	}
}
