package trading

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/menjalnica/internal/db"
	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

func TestPermanentTransactionFinish(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender := seedUser(t, database, "alice")
	borrower := seedUser(t, database, "bob")
	transaction, item := seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-09-10"))

	c := NewCoordinator(database)
	clearMeeting(t, database, transaction.MeetingIDs[0], lender.ID, borrower.ID)
	if err := c.OnMeetingConfirmed(ctx, transaction.MeetingIDs[0]); err != nil {
		t.Fatalf("OnMeetingConfirmed: %v", err)
	}

	finished, _ := store.GetItem(ctx, database, item.ID)
	if finished.OwnerID != borrower.ID || finished.HolderID != borrower.ID {
		t.Errorf("expected borrower to own and hold the item, got owner=%d holder=%d",
			finished.OwnerID, finished.HolderID)
	}
	if finished.DeletedAt == nil {
		t.Error("expected permanent transaction to retire the item")
	}
	if finished.Reserved {
		t.Error("expected reservation cleared")
	}

	trade, _ := store.GetTrade(ctx, database, transaction.TradeIDs[0])
	if !trade.Complete {
		t.Error("expected trade marked complete")
	}

	status, err := c.Classify(ctx, transaction)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if status != model.TransactionComplete {
		t.Errorf("expected complete, got %s", status)
	}
}

// confirmAndNotify records one user's conducted confirmation and notifies
// the coordinator when it changed, the way the conducted endpoint does.
func confirmAndNotify(t *testing.T, database *sql.DB, c *Coordinator, meetingID, userID int64) {
	t.Helper()
	ctx := context.Background()

	changed, err := store.SetMeetingConducted(ctx, database, meetingID, userID)
	if err != nil {
		t.Fatalf("SetMeetingConducted: %v", err)
	}
	if changed {
		if err := c.OnMeetingConfirmed(ctx, meetingID); err != nil {
			t.Fatalf("OnMeetingConfirmed: %v", err)
		}
	}
}

func TestTemporaryTransactionTwoPhase(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender := seedUser(t, database, "alice")
	borrower := seedUser(t, database, "bob")
	transaction, item := seedTransaction(t, database, lender.ID, borrower.ID, false, date(t, "2026-09-10"))

	c := NewCoordinator(database)
	handoff, ret := transaction.MeetingIDs[0], transaction.MeetingIDs[1]

	// Phase one: the hand-off confirmations arrive one at a time, the way
	// the API delivers them. Nothing moves until the meeting is clear.
	if err := store.SetMeetingAgreed(ctx, database, handoff); err != nil {
		t.Fatalf("agreeing hand-off meeting: %v", err)
	}
	confirmAndNotify(t, database, c, handoff, lender.ID)

	untouched, _ := store.GetItem(ctx, database, item.ID)
	if untouched.HolderID != lender.ID || untouched.OwnerID != lender.ID {
		t.Errorf("custody moved on a single confirmation: owner=%d holder=%d",
			untouched.OwnerID, untouched.HolderID)
	}

	confirmAndNotify(t, database, c, handoff, borrower.ID)

	lent, _ := store.GetItem(ctx, database, item.ID)
	if lent.HolderID != borrower.ID {
		t.Errorf("expected borrower holding the item, got %d", lent.HolderID)
	}
	if lent.OwnerID != lender.ID {
		t.Errorf("hand-off must not change ownership, got owner %d", lent.OwnerID)
	}
	trade, _ := store.GetTrade(ctx, database, transaction.TradeIDs[0])
	if trade.Complete {
		t.Error("trade must not complete before the return meeting")
	}

	// Phase two: the first return confirmation must not disturb the loan.
	if err := store.SetMeetingAgreed(ctx, database, ret); err != nil {
		t.Fatalf("agreeing return meeting: %v", err)
	}
	confirmAndNotify(t, database, c, ret, lender.ID)

	midLoan, _ := store.GetItem(ctx, database, item.ID)
	if midLoan.HolderID != borrower.ID || midLoan.OwnerID != lender.ID {
		t.Errorf("loan disturbed before the return meeting cleared: owner=%d holder=%d",
			midLoan.OwnerID, midLoan.HolderID)
	}

	confirmAndNotify(t, database, c, ret, borrower.ID)

	returned, _ := store.GetItem(ctx, database, item.ID)
	if returned.HolderID != lender.ID {
		t.Errorf("expected lender holding the item after return, got %d", returned.HolderID)
	}
	if returned.OwnerID != lender.ID {
		t.Errorf("expected ownership back with the lender after return, got %d", returned.OwnerID)
	}
	if returned.DeletedAt != nil {
		t.Error("temporary transaction must not retire the item")
	}
	if returned.Reserved {
		t.Error("expected reservation cleared")
	}

	trade, _ = store.GetTrade(ctx, database, transaction.TradeIDs[0])
	if !trade.Complete {
		t.Error("expected trade complete after the return meeting")
	}

	status, err := c.Classify(ctx, transaction)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if status != model.TransactionComplete {
		t.Errorf("expected complete, got %s", status)
	}
}

func TestOnMeetingConfirmedIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender := seedUser(t, database, "alice")
	borrower := seedUser(t, database, "bob")
	transaction, item := seedTransaction(t, database, lender.ID, borrower.ID, false, date(t, "2026-09-10"))

	c := NewCoordinator(database)
	clearMeeting(t, database, transaction.MeetingIDs[0], lender.ID, borrower.ID)
	c.OnMeetingConfirmed(ctx, transaction.MeetingIDs[0])
	clearMeeting(t, database, transaction.MeetingIDs[1], lender.ID, borrower.ID)
	c.OnMeetingConfirmed(ctx, transaction.MeetingIDs[1])

	before, _ := store.GetItem(ctx, database, item.ID)

	// A stray re-confirmation must not toggle custody again.
	if err := c.OnMeetingConfirmed(ctx, transaction.MeetingIDs[1]); err != nil {
		t.Fatalf("repeated OnMeetingConfirmed: %v", err)
	}

	after, _ := store.GetItem(ctx, database, item.ID)
	if after.HolderID != before.HolderID || after.OwnerID != before.OwnerID {
		t.Errorf("custody changed on repeat: before owner=%d holder=%d, after owner=%d holder=%d",
			before.OwnerID, before.HolderID, after.OwnerID, after.HolderID)
	}
}

func TestClassifyOpenAndIncomplete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender := seedUser(t, database, "alice")
	borrower := seedUser(t, database, "bob")

	c := NewCoordinator(database)
	c.now = func() time.Time { return date(t, "2026-09-01") }

	// Return meeting lands 30 days after the hand-off, well ahead of today.
	open, _ := seedTransaction(t, database, lender.ID, borrower.ID, false, date(t, "2026-09-10"))
	status, err := c.Classify(ctx, open)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if status != model.TransactionOpen {
		t.Errorf("expected open, got %s", status)
	}

	// Permanent transaction whose only meeting is today: no longer ongoing.
	due, _ := seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-09-01"))
	status, _ = c.Classify(ctx, due)
	if status != model.TransactionIncomplete {
		t.Errorf("expected incomplete for a due transaction, got %s", status)
	}

	past, _ := seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-08-01"))
	status, _ = c.Classify(ctx, past)
	if status != model.TransactionIncomplete {
		t.Errorf("expected incomplete, got %s", status)
	}
}

func TestWeeklyTransactionsBoundaries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lender := seedUser(t, database, "alice")
	borrower := seedUser(t, database, "bob")

	c := NewCoordinator(database)
	// 2026-09-02 is a Wednesday; the week runs 2026-08-31 to 2026-09-06.
	c.now = func() time.Time { return date(t, "2026-09-02") }

	seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-08-31")) // Monday
	seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-09-06")) // Sunday
	seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-08-30")) // previous Sunday
	seedTransaction(t, database, lender.ID, borrower.ID, true, date(t, "2026-09-07")) // next Monday

	weekly, err := c.WeeklyTransactionsOf(ctx, borrower.ID)
	if err != nil {
		t.Fatalf("WeeklyTransactionsOf: %v", err)
	}
	if len(weekly) != 2 {
		t.Errorf("expected 2 weekly transactions, got %d", len(weekly))
	}
}

func TestWeekBounds(t *testing.T) {
	monday, sunday := weekBounds(time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC))
	if monday != time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected monday: %v", monday)
	}
	if sunday != time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected sunday: %v", sunday)
	}

	// A Monday maps to its own week.
	monday, _ = weekBounds(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	if monday != time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) {
		t.Errorf("monday should map to itself, got %v", monday)
	}
}

func TestFrequentTradingPartners(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice")
	bob := seedUser(t, database, "bob")
	carol := seedUser(t, database, "carol")
	dave := seedUser(t, database, "dave")

	// Two one-way transactions with bob.
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-10"))
	seedTransaction(t, database, bob.ID, alice.ID, true, date(t, "2026-09-11"))

	// One two-way transaction with carol, which counts double.
	item := seedItem(t, database, "Book", carol.ID)
	counterItem := seedItem(t, database, "Record", alice.ID)
	trade, _ := store.CreateTrade(ctx, database, carol.ID, alice.ID, item.ID)
	counter, _ := store.CreateTrade(ctx, database, alice.ID, carol.ID, counterItem.ID)
	meeting, _ := store.CreateMeeting(ctx, database, date(t, "2026-09-12"), "park", alice.ID, false)
	store.CreateTransaction(ctx, database, []int64{trade.ID, counter.ID}, []int64{meeting.ID})

	// One one-way transaction with dave.
	seedTransaction(t, database, dave.ID, alice.ID, true, date(t, "2026-09-13"))

	c := NewCoordinator(database)

	// bob and carol both count 2; the tie resolves to the lower id.
	partners, err := c.FrequentTradingPartners(ctx, alice.ID, 2)
	if err != nil {
		t.Fatalf("FrequentTradingPartners: %v", err)
	}
	if len(partners) != 2 || partners[0] != bob.ID || partners[1] != carol.ID {
		t.Errorf("expected [%d %d], got %v", bob.ID, carol.ID, partners)
	}

	names, err := c.FrequentTradingPartnerNames(ctx, alice.ID, 5)
	if err != nil {
		t.Fatalf("FrequentTradingPartnerNames: %v", err)
	}
	want := []string{"bob", "carol", "dave"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("partner %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
