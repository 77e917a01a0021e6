package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/menjalnica/internal/model"
)

// CreateItem creates a new item owned and held by the given user.
// Items start invisible; an admin has to approve them for trading.
func CreateItem(ctx context.Context, db *sql.DB, name, description string, ownerID int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, owner_id, holder_id) VALUES (?, ?, ?, ?)`,
		name, description, ownerID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including soft-deleted ones.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, holder_id, visible, reserved,
		        photo_mime, created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &item.OwnerID, &item.HolderID,
		&item.Visible, &item.Reserved, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// ListItems returns every item, including invisible and soft-deleted ones.
// Callers narrow the result with trading.ItemQuery predicates.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, owner_id, holder_id, visible, reserved,
		        photo_mime, created_at, updated_at, deleted_at
		 FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, photoMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.OwnerID, &item.HolderID,
			&item.Visible, &item.Reserved, &photoMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.PhotoMime = photoMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's name and description.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, description, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemVisible approves or hides an item.
func SetItemVisible(ctx context.Context, db *sql.DB, id int64, visible bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET visible = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		visible, id,
	)
	if err != nil {
		return fmt.Errorf("setting item visibility: %w", err)
	}
	return nil
}

// SetItemReserved marks an item as tied up in a pending transaction.
func SetItemReserved(ctx context.Context, db *sql.DB, id int64, reserved bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET reserved = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		reserved, id,
	)
	if err != nil {
		return fmt.Errorf("setting item reservation: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemPhoto sets an item's listing photo.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's listing photo and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
