package trading

import (
	"context"
	"database/sql"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// itemPredicate decides whether an item stays in the result set.
type itemPredicate func(ctx context.Context, item *model.Item) (bool, error)

// ItemQuery builds item listings by chaining predicates. Predicates only
// narrow: an empty query returns every item, deleted and unapproved ones
// included.
type ItemQuery struct {
	db    *sql.DB
	preds []itemPredicate
}

// NewItemQuery starts a query matching all items.
func NewItemQuery(db *sql.DB) *ItemQuery {
	return &ItemQuery{db: db}
}

func (q *ItemQuery) add(p itemPredicate) *ItemQuery {
	q.preds = append(q.preds, p)
	return q
}

// NotDeleted keeps items that have not been soft-deleted.
func (q *ItemQuery) NotDeleted() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.DeletedAt == nil, nil
	})
}

// OnlyDeleted keeps soft-deleted items.
func (q *ItemQuery) OnlyDeleted() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.DeletedAt != nil, nil
	})
}

// OnlyApproved keeps items an admin has made visible.
func (q *ItemQuery) OnlyApproved() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.Visible, nil
	})
}

// ExceptApproved keeps items still waiting for approval.
func (q *ItemQuery) ExceptApproved() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return !item.Visible, nil
	})
}

// HeldByOwner keeps items currently in their owner's hands, i.e. not lent out.
func (q *ItemQuery) HeldByOwner() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return !item.IsLent(), nil
	})
}

// NotReserved keeps items not locked into an ongoing transaction.
func (q *ItemQuery) NotReserved() *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return !item.Reserved, nil
	})
}

// OnlyOwnedBy keeps items owned by the given user.
func (q *ItemQuery) OnlyOwnedBy(userID int64) *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.OwnerID == userID, nil
	})
}

// ExceptOwnedBy drops items owned by the given user.
func (q *ItemQuery) ExceptOwnedBy(userID int64) *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.OwnerID != userID, nil
	})
}

// OnlyHeldBy keeps items currently held by the given user.
func (q *ItemQuery) OnlyHeldBy(userID int64) *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.HolderID == userID, nil
	})
}

// ExceptHeldBy drops items currently held by the given user.
func (q *ItemQuery) ExceptHeldBy(userID int64) *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.HolderID != userID, nil
	})
}

// FindByID keeps only the item with the given id.
func (q *ItemQuery) FindByID(itemID int64) *ItemQuery {
	return q.add(func(_ context.Context, item *model.Item) (bool, error) {
		return item.ID == itemID, nil
	})
}

// OwnedByUnfrozenUser drops items whose owner is frozen.
func (q *ItemQuery) OwnedByUnfrozenUser() *ItemQuery {
	var frozen map[int64]bool
	return q.add(func(ctx context.Context, item *model.Item) (bool, error) {
		if frozen == nil {
			users, err := store.ListUsers(ctx, q.db)
			if err != nil {
				return false, err
			}
			frozen = make(map[int64]bool, len(users))
			for _, user := range users {
				frozen[user.ID] = user.Status == model.StatusFrozen ||
					user.Status == model.StatusRequestUnfreeze
			}
		}
		return !frozen[item.OwnerID], nil
	})
}

// InWishlistOf keeps items on the given user's wishlist.
func (q *ItemQuery) InWishlistOf(userID int64) *ItemQuery {
	var wished map[int64]bool
	return q.add(func(ctx context.Context, item *model.Item) (bool, error) {
		if wished == nil {
			var err error
			if wished, err = q.wishlist(ctx, userID); err != nil {
				return false, err
			}
		}
		return wished[item.ID], nil
	})
}

// NotInWishlistOf drops items on the given user's wishlist. A user without a
// wishlist excludes nothing.
func (q *ItemQuery) NotInWishlistOf(userID int64) *ItemQuery {
	var wished map[int64]bool
	return q.add(func(ctx context.Context, item *model.Item) (bool, error) {
		if wished == nil {
			var err error
			if wished, err = q.wishlist(ctx, userID); err != nil {
				return false, err
			}
		}
		if len(wished) == 0 {
			return true, nil
		}
		return !wished[item.ID], nil
	})
}

func (q *ItemQuery) wishlist(ctx context.Context, userID int64) (map[int64]bool, error) {
	ids, err := store.WishlistOf(ctx, q.db, userID)
	if err != nil {
		return nil, err
	}
	wished := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wished[id] = true
	}
	return wished, nil
}

// Fetch runs the query and returns the matching items.
func (q *ItemQuery) Fetch(ctx context.Context) ([]model.Item, error) {
	items, err := store.ListItems(ctx, q.db)
	if err != nil {
		return nil, err
	}

	var matched []model.Item
	for i := range items {
		keep := true
		for _, pred := range q.preds {
			ok, err := pred(ctx, &items[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, items[i])
		}
	}
	return matched, nil
}

// FetchIDs runs the query and returns just the matching item ids.
func (q *ItemQuery) FetchIDs(ctx context.Context) ([]int64, error) {
	items, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
	}
	return ids, nil
}

// FetchNames runs the query and returns just the matching item names.
func (q *ItemQuery) FetchNames(ctx context.Context) ([]string, error) {
	items, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for i := range items {
		names = append(names, items[i].Name)
	}
	return names, nil
}
