package trading

import (
	"context"
	"database/sql"
	"errors"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// AccessGate answers permission questions about users. A missing user has
// no permissions; a frozen user can neither lend nor borrow.
type AccessGate struct {
	db    *sql.DB
	rules *RuleEngine
}

// NewAccessGate creates an access gate backed by the given rule engine.
func NewAccessGate(db *sql.DB, rules *RuleEngine) *AccessGate {
	return &AccessGate{db: db, rules: rules}
}

// IsAdmin reports whether the user exists and is an administrator.
func (g *AccessGate) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := store.GetUser(ctx, g.db, userID)
	if err != nil || user == nil {
		return false, err
	}
	return user.Status == model.StatusAdmin, nil
}

// IsFrozen reports whether the user exists and is frozen. A user who has
// requested unfreezing is still frozen.
func (g *AccessGate) IsFrozen(ctx context.Context, userID int64) (bool, error) {
	user, err := store.GetUser(ctx, g.db, userID)
	if err != nil || user == nil {
		return false, err
	}
	return user.Status == model.StatusFrozen || user.Status == model.StatusRequestUnfreeze, nil
}

// CanLend reports whether the user may offer items: they must exist and not
// be frozen.
func (g *AccessGate) CanLend(ctx context.Context, userID int64) (bool, error) {
	user, err := store.GetUser(ctx, g.db, userID)
	if err != nil || user == nil {
		return false, err
	}
	frozen, err := g.IsFrozen(ctx, userID)
	if err != nil {
		return false, err
	}
	return !frozen, nil
}

// CanBorrow reports whether the user may borrow items: they must be allowed
// to lend and not over their borrowing allowance. If the borrowing rule is
// not configured, lending permission alone decides.
func (g *AccessGate) CanBorrow(ctx context.Context, userID int64) (bool, error) {
	canLend, err := g.CanLend(ctx, userID)
	if err != nil || !canLend {
		return false, err
	}

	violates, err := g.rules.Violates(ctx, model.RuleNoMoreBorrowThanLend, userID)
	if errors.Is(err, ErrRuleDoesNotExist) {
		return canLend, nil
	}
	if err != nil {
		return false, err
	}
	return !violates, nil
}
