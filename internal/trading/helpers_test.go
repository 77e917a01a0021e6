package trading

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parsing date: %v", err)
	}
	return parsed
}

func seedUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), database, username, "hash", model.StatusNormal)
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func seedItem(t *testing.T, database *sql.DB, name string, ownerID int64) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), database, name, "", ownerID)
	if err != nil {
		t.Fatalf("creating item %s: %v", name, err)
	}
	return item
}

// seedTransaction builds a one-way transaction: borrower borrows a fresh
// item from lender, with a hand-off meeting on meetingDate and, unless
// permanent, a return meeting thirty days later.
func seedTransaction(t *testing.T, database *sql.DB, lenderID, borrowerID int64, permanent bool, meetingDate time.Time) (*model.Transaction, *model.Item) {
	t.Helper()
	ctx := context.Background()

	item := seedItem(t, database, "Item", lenderID)
	trade, err := store.CreateTrade(ctx, database, lenderID, borrowerID, item.ID)
	if err != nil {
		t.Fatalf("creating trade: %v", err)
	}

	meeting, err := store.CreateMeeting(ctx, database, meetingDate, "park", borrowerID, false)
	if err != nil {
		t.Fatalf("creating meeting: %v", err)
	}
	meetingIDs := []int64{meeting.ID}
	if !permanent {
		returnMeeting, err := store.CreateMeeting(ctx, database, meetingDate.AddDate(0, 0, 30), "park", borrowerID, true)
		if err != nil {
			t.Fatalf("creating return meeting: %v", err)
		}
		meetingIDs = append(meetingIDs, returnMeeting.ID)
	}

	transaction, err := store.CreateTransaction(ctx, database, []int64{trade.ID}, meetingIDs)
	if err != nil {
		t.Fatalf("creating transaction: %v", err)
	}
	return transaction, item
}

// seedSwap builds a permanent two-way transaction between the lender and
// borrower, each side offering a fresh item.
func seedSwap(t *testing.T, database *sql.DB, lenderID, borrowerID int64, meetingDate time.Time) *model.Transaction {
	t.Helper()
	ctx := context.Background()

	item := seedItem(t, database, "Offered", lenderID)
	counterItem := seedItem(t, database, "Counter", borrowerID)
	trade, err := store.CreateTrade(ctx, database, lenderID, borrowerID, item.ID)
	if err != nil {
		t.Fatalf("creating trade: %v", err)
	}
	counter, err := store.CreateTrade(ctx, database, borrowerID, lenderID, counterItem.ID)
	if err != nil {
		t.Fatalf("creating counter trade: %v", err)
	}
	meeting, err := store.CreateMeeting(ctx, database, meetingDate, "park", borrowerID, false)
	if err != nil {
		t.Fatalf("creating meeting: %v", err)
	}

	transaction, err := store.CreateTransaction(ctx, database,
		[]int64{trade.ID, counter.ID}, []int64{meeting.ID})
	if err != nil {
		t.Fatalf("creating transaction: %v", err)
	}
	return transaction
}

// clearMeeting agrees the meeting and confirms it for both parties.
func clearMeeting(t *testing.T, database *sql.DB, meetingID, userA, userB int64) {
	t.Helper()
	ctx := context.Background()

	if err := store.SetMeetingAgreed(ctx, database, meetingID); err != nil {
		t.Fatalf("agreeing meeting: %v", err)
	}
	for _, userID := range []int64{userA, userB} {
		if _, err := store.SetMeetingConducted(ctx, database, meetingID, userID); err != nil {
			t.Fatalf("confirming meeting: %v", err)
		}
	}
}
