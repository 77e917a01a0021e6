package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/menjalnica/internal/model"
)

// CreateTransaction persists a transaction bundling one or two trades with
// one or two meetings. The skeletons become durable together at this point.
func CreateTransaction(ctx context.Context, db *sql.DB, tradeIDs, meetingIDs []int64) (*model.Transaction, error) {
	if len(tradeIDs) < 1 || len(tradeIDs) > 2 {
		return nil, fmt.Errorf("transaction needs one or two trades, got %d", len(tradeIDs))
	}
	if len(meetingIDs) < 1 || len(meetingIDs) > 2 {
		return nil, fmt.Errorf("transaction needs one or two meetings, got %d", len(meetingIDs))
	}

	var trade2, meeting2 any
	if len(tradeIDs) == 2 {
		trade2 = tradeIDs[1]
	}
	if len(meetingIDs) == 2 {
		meeting2 = meetingIDs[1]
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO transactions (trade_id, trade2_id, meeting_id, meeting2_id) VALUES (?, ?, ?, ?)`,
		tradeIDs[0], trade2, meetingIDs[0], meeting2,
	)
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transaction id: %w", err)
	}

	return GetTransaction(ctx, db, id)
}

// GetTransaction returns a transaction by ID.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*model.Transaction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, trade_id, trade2_id, meeting_id, meeting2_id, created_at, deleted_at
		 FROM transactions WHERE id = ?`, id,
	)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all transactions.
func ListTransactions(ctx context.Context, db *sql.DB) ([]model.Transaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, trade_id, trade2_id, meeting_id, meeting2_id, created_at, deleted_at
		 FROM transactions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// FindTransactionByMeeting returns the transaction owning the meeting,
// or nil if no transaction bundles it.
func FindTransactionByMeeting(ctx context.Context, db *sql.DB, meetingID int64) (*model.Transaction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, trade_id, trade2_id, meeting_id, meeting2_id, created_at, deleted_at
		 FROM transactions WHERE meeting_id = ? OR meeting2_id = ?`,
		meetingID, meetingID,
	)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding transaction by meeting: %w", err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	t := &model.Transaction{}
	var tradeID, meetingID int64
	var trade2, meeting2 sql.NullInt64
	if err := row.Scan(&t.ID, &tradeID, &trade2, &meetingID, &meeting2, &t.CreatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	t.TradeIDs = []int64{tradeID}
	if trade2.Valid {
		t.TradeIDs = append(t.TradeIDs, trade2.Int64)
	}
	t.MeetingIDs = []int64{meetingID}
	if meeting2.Valid {
		t.MeetingIDs = append(t.MeetingIDs, meeting2.Int64)
	}
	return t, nil
}
