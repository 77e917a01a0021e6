package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/menjalnica/internal/model"
)

// CreateTrade creates a trade skeleton. The trade only becomes durable for
// lifecycle purposes once a transaction bundles it.
func CreateTrade(ctx context.Context, db *sql.DB, lenderID, borrowerID, itemID int64) (*model.Trade, error) {
	if lenderID == borrowerID {
		return nil, fmt.Errorf("cannot trade with yourself")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO trades (lender_id, borrower_id, item_id) VALUES (?, ?, ?)`,
		lenderID, borrowerID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting trade id: %w", err)
	}

	return GetTrade(ctx, db, id)
}

// GetTrade returns a trade by ID.
func GetTrade(ctx context.Context, db *sql.DB, id int64) (*model.Trade, error) {
	t := &model.Trade{}
	err := db.QueryRowContext(ctx,
		`SELECT id, lender_id, borrower_id, item_id, complete, created_at, deleted_at
		 FROM trades WHERE id = ?`, id,
	).Scan(&t.ID, &t.LenderID, &t.BorrowerID, &t.ItemID, &t.Complete, &t.CreatedAt, &t.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trade: %w", err)
	}
	return t, nil
}

// GetTrades returns the trades with the given IDs, in the given order.
func GetTrades(ctx context.Context, db *sql.DB, ids []int64) ([]model.Trade, error) {
	trades := make([]model.Trade, 0, len(ids))
	for _, id := range ids {
		t, err := GetTrade(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("trade %d not found", id)
		}
		trades = append(trades, *t)
	}
	return trades, nil
}

// SetTradeComplete marks a trade complete or not.
func SetTradeComplete(ctx context.Context, db *sql.DB, id int64, complete bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE trades SET complete = ? WHERE id = ? AND deleted_at IS NULL`,
		complete, id,
	)
	if err != nil {
		return fmt.Errorf("setting trade completion: %w", err)
	}
	return nil
}
