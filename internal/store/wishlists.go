package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddWish adds an item to a user's wishlist. Adding twice is a no-op.
func AddWish(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO wishlists (user_id, item_id) VALUES (?, ?)`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("adding wish: %w", err)
	}
	return nil
}

// RemoveWish removes an item from a user's wishlist.
func RemoveWish(ctx context.Context, db *sql.DB, userID, itemID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = ? AND item_id = ?`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("removing wish: %w", err)
	}
	return nil
}

// WishlistOf returns the item IDs on a user's wishlist. An empty result
// means the user has no wishlist.
func WishlistOf(ctx context.Context, db *sql.DB, userID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id FROM wishlists WHERE user_id = ? ORDER BY item_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting wishlist: %w", err)
	}
	defer rows.Close()

	var itemIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning wish: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}
	return itemIDs, rows.Err()
}
