package trading

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// Coordinator bundles trades and meetings into transactions, classifies
// their status and applies item custody transfer when meetings are
// confirmed. Status is always derived from current state, never stored.
type Coordinator struct {
	db  *sql.DB
	now func() time.Time
}

// NewCoordinator creates a coordinator over the given database.
func NewCoordinator(db *sql.DB) *Coordinator {
	return &Coordinator{db: db, now: time.Now}
}

// Initiate persists a new transaction bundling the given trade and meeting
// skeletons and returns its id.
func (c *Coordinator) Initiate(ctx context.Context, tradeIDs, meetingIDs []int64) (int64, error) {
	t, err := store.CreateTransaction(ctx, c.db, tradeIDs, meetingIDs)
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Get returns a transaction by id.
func (c *Coordinator) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	t, err := store.GetTransaction(ctx, c.db, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionDoesNotExist
	}
	return t, nil
}

// Classify derives the transaction's status: complete when every trade and
// meeting is complete, open while the latest meeting date is still ahead,
// incomplete once that date has passed without completion.
func (c *Coordinator) Classify(ctx context.Context, t *model.Transaction) (string, error) {
	complete, err := c.isComplete(ctx, t)
	if err != nil {
		return "", err
	}
	if complete {
		return model.TransactionComplete, nil
	}

	ongoing, err := c.onGoing(ctx, t)
	if err != nil {
		return "", err
	}
	if ongoing {
		return model.TransactionOpen, nil
	}
	return model.TransactionIncomplete, nil
}

// OnMeetingConfirmed reacts to a meeting confirmation by advancing the
// owning transaction. A permanent transaction finishes once its only meeting
// is clear. A temporary transaction hands custody to the borrower once the
// hand-off meeting is clear, and finishes (restoring custody) once the
// return meeting is clear too. Calling this for an already finished
// transaction is a no-op.
func (c *Coordinator) OnMeetingConfirmed(ctx context.Context, meetingID int64) error {
	t, err := store.FindTransactionByMeeting(ctx, c.db, meetingID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTransactionDoesNotExist
	}

	finished, err := c.tradesComplete(ctx, t)
	if err != nil {
		return err
	}
	if finished {
		return nil
	}

	meetings, err := store.GetMeetings(ctx, c.db, t.MeetingIDs)
	if err != nil {
		return err
	}

	switch {
	case t.Permanent():
		if meetings[0].Clear() {
			return c.finish(ctx, t)
		}
	case meetings[0].Clear() && !meetings[1].Clear():
		return c.beginCustodyHandoff(ctx, t)
	case meetings[0].Clear() && meetings[1].Clear():
		return c.finish(ctx, t)
	}
	return nil
}

// TransactionsOf returns all transactions the user participates in.
func (c *Coordinator) TransactionsOf(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return c.filterTransactions(ctx, userID, func(context.Context, *model.Transaction) (bool, error) {
		return true, nil
	})
}

// OpenTransactionsOf returns the user's ongoing, not yet complete transactions.
func (c *Coordinator) OpenTransactionsOf(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return c.filterTransactions(ctx, userID, func(ctx context.Context, t *model.Transaction) (bool, error) {
		status, err := c.Classify(ctx, t)
		return status == model.TransactionOpen, err
	})
}

// IncompleteTransactionsOf returns the user's transactions that are past
// their latest meeting date without having completed.
func (c *Coordinator) IncompleteTransactionsOf(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return c.filterTransactions(ctx, userID, func(ctx context.Context, t *model.Transaction) (bool, error) {
		status, err := c.Classify(ctx, t)
		return status == model.TransactionIncomplete, err
	})
}

// WeeklyTransactionsOf returns the user's transactions with a meeting inside
// the Monday to Sunday window containing today, boundaries included.
func (c *Coordinator) WeeklyTransactionsOf(ctx context.Context, userID int64) ([]model.Transaction, error) {
	monday, sunday := weekBounds(c.now())
	return c.filterTransactions(ctx, userID, func(ctx context.Context, t *model.Transaction) (bool, error) {
		meetings, err := store.GetMeetings(ctx, c.db, t.MeetingIDs)
		if err != nil {
			return false, err
		}
		for _, m := range meetings {
			d := dateOnly(m.Date)
			if !d.Before(monday) && !d.After(sunday) {
				return true, nil
			}
		}
		return false, nil
	})
}

// FrequentTradingPartners returns up to n partner user ids ranked by how
// often the user traded with them. A two-way transaction counts twice for
// its partner. Ranking extracts the highest remaining count greedily.
func (c *Coordinator) FrequentTradingPartners(ctx context.Context, userID int64, n int) ([]int64, error) {
	transactions, err := c.TransactionsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := map[int64]int{}
	for i := range transactions {
		t := &transactions[i]
		weight := 1
		if !t.OneWay() {
			weight = 2
		}
		partner, err := c.partnerOf(ctx, t, userID)
		if err != nil {
			return nil, err
		}
		counts[partner] += weight
	}

	// Candidate ids in stable order so equal counts resolve the same way
	// every run.
	candidates := make([]int64, 0, len(counts))
	for id := range counts {
		candidates = append(candidates, id)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	var partners []int64
	for len(partners) < n && len(counts) > 0 {
		best := int64(-1)
		bestCount := -1
		for _, id := range candidates {
			if count, ok := counts[id]; ok && count > bestCount {
				best = id
				bestCount = count
			}
		}
		partners = append(partners, best)
		delete(counts, best)
	}
	return partners, nil
}

// FrequentTradingPartnerNames resolves FrequentTradingPartners to usernames.
func (c *Coordinator) FrequentTradingPartnerNames(ctx context.Context, userID int64, n int) ([]string, error) {
	ids, err := c.FrequentTradingPartners(ctx, userID, n)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := store.GetUser(ctx, c.db, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			names = append(names, user.Username)
		}
	}
	return names, nil
}

// MeetingParticipant reports whether the user is a party of the transaction
// that owns the meeting.
func (c *Coordinator) MeetingParticipant(ctx context.Context, meetingID, userID int64) (bool, error) {
	t, err := store.FindTransactionByMeeting(ctx, c.db, meetingID)
	if err != nil || t == nil {
		return false, err
	}
	return c.involves(ctx, t, userID)
}

// beginCustodyHandoff moves every traded item into the borrower's hands
// without touching ownership: the item is physically lent out. Re-running it
// (confirmations of the return meeting arrive while it is not yet clear)
// leaves the holder with the borrower.
func (c *Coordinator) beginCustodyHandoff(ctx context.Context, t *model.Transaction) error {
	return c.transferCustody(ctx, t, false)
}

// finish marks every trade complete and settles custody. A permanent
// transaction leaves the borrower as holder and owner and retires the
// listing; a temporary transaction's finish is the return hand-over, so
// holder and owner both end up back with the lender.
func (c *Coordinator) finish(ctx context.Context, t *model.Transaction) error {
	return c.transferCustody(ctx, t, true)
}

// transferCustody applies the custody changes for a hand-off (finishing ==
// false) or a finish (finishing == true) in a single database transaction,
// so two racing confirmations cannot both apply it. Target custody is
// assigned from each trade's parties, never derived from the item's current
// state, which makes every phase safe to re-run.
func (c *Coordinator) transferCustody(ctx context.Context, t *model.Transaction, finishing bool) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning custody transfer: %w", err)
	}
	defer tx.Rollback()

	for _, tradeID := range t.TradeIDs {
		var lenderID, borrowerID, itemID int64
		err := tx.QueryRowContext(ctx,
			`SELECT lender_id, borrower_id, item_id FROM trades WHERE id = ?`, tradeID,
		).Scan(&lenderID, &borrowerID, &itemID)
		if err != nil {
			return fmt.Errorf("reading trade %d: %w", tradeID, err)
		}

		if !finishing {
			_, err = tx.ExecContext(ctx,
				`UPDATE items SET holder_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				borrowerID, itemID,
			)
			if err != nil {
				return fmt.Errorf("updating item %d holder: %w", itemID, err)
			}
			continue
		}

		if t.Permanent() {
			_, err = tx.ExecContext(ctx,
				`UPDATE items SET holder_id = ?, owner_id = ?, reserved = 0,
				        deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`,
				borrowerID, borrowerID, itemID,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE items SET holder_id = ?, owner_id = ?, reserved = 0,
				        deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`,
				lenderID, lenderID, itemID,
			)
		}
		if err != nil {
			return fmt.Errorf("updating item %d custody: %w", itemID, err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE trades SET complete = 1 WHERE id = ?`, tradeID)
		if err != nil {
			return fmt.Errorf("completing trade %d: %w", tradeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing custody transfer: %w", err)
	}
	return nil
}

func (c *Coordinator) filterTransactions(ctx context.Context, userID int64, keep func(context.Context, *model.Transaction) (bool, error)) ([]model.Transaction, error) {
	all, err := store.ListTransactions(ctx, c.db)
	if err != nil {
		return nil, err
	}

	var matched []model.Transaction
	for i := range all {
		t := &all[i]
		involved, err := c.involves(ctx, t, userID)
		if err != nil {
			return nil, err
		}
		if !involved {
			continue
		}
		ok, err := keep(ctx, t)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, *t)
		}
	}
	return matched, nil
}

// involves reports whether the user is a party of the transaction. Both
// parties appear on the first trade, by construction.
func (c *Coordinator) involves(ctx context.Context, t *model.Transaction, userID int64) (bool, error) {
	trade, err := store.GetTrade(ctx, c.db, t.TradeIDs[0])
	if err != nil {
		return false, err
	}
	if trade == nil {
		return false, fmt.Errorf("trade %d not found", t.TradeIDs[0])
	}
	return trade.LenderID == userID || trade.BorrowerID == userID, nil
}

func (c *Coordinator) partnerOf(ctx context.Context, t *model.Transaction, userID int64) (int64, error) {
	trade, err := store.GetTrade(ctx, c.db, t.TradeIDs[0])
	if err != nil {
		return 0, err
	}
	if trade == nil {
		return 0, fmt.Errorf("trade %d not found", t.TradeIDs[0])
	}
	if trade.BorrowerID == userID {
		return trade.LenderID, nil
	}
	return trade.BorrowerID, nil
}

func (c *Coordinator) tradesComplete(ctx context.Context, t *model.Transaction) (bool, error) {
	trades, err := store.GetTrades(ctx, c.db, t.TradeIDs)
	if err != nil {
		return false, err
	}
	for _, trade := range trades {
		if !trade.Complete {
			return false, nil
		}
	}
	return true, nil
}

func (c *Coordinator) isComplete(ctx context.Context, t *model.Transaction) (bool, error) {
	complete, err := c.tradesComplete(ctx, t)
	if err != nil || !complete {
		return false, err
	}

	meetings, err := store.GetMeetings(ctx, c.db, t.MeetingIDs)
	if err != nil {
		return false, err
	}
	for i := range meetings {
		if !meetings[i].IsComplete() {
			return false, nil
		}
	}
	return true, nil
}

// onGoing reports whether the latest meeting date is still ahead of today.
// A transaction whose latest meeting is today counts as due.
func (c *Coordinator) onGoing(ctx context.Context, t *model.Transaction) (bool, error) {
	meetings, err := store.GetMeetings(ctx, c.db, t.MeetingIDs)
	if err != nil {
		return false, err
	}

	latest := dateOnly(meetings[0].Date)
	for i := range meetings[1:] {
		if d := dateOnly(meetings[i+1].Date); d.After(latest) {
			latest = d
		}
	}
	return latest.After(dateOnly(c.now())), nil
}

// weekBounds returns the Monday and Sunday of the week containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	today := dateOnly(now)
	offset := (int(today.Weekday()) + 6) % 7 // days since Monday
	monday := today.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
