package trading

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/erazemk/menjalnica/internal/model"
	"github.com/erazemk/menjalnica/internal/store"
)

// Default rule thresholds, used until configuration is loaded.
const (
	DefaultMaxBorrowOverLend        = 1
	DefaultMaxTransactionsPerWeek   = 3
	DefaultMaxIncompleteTransaction = 3
)

// RuleEngine evaluates the system's lending rules against a user's trading
// history. Rules are checked by name; an unknown name is an error, not a
// pass, so callers can decide how to degrade.
type RuleEngine struct {
	db          *sql.DB
	coordinator *Coordinator
	thresholds  map[string]int
}

// NewRuleEngine creates a rule engine with thresholds from the given config.
func NewRuleEngine(db *sql.DB, coordinator *Coordinator, config map[string]string) *RuleEngine {
	e := &RuleEngine{
		db:          db,
		coordinator: coordinator,
		thresholds: map[string]int{
			model.RuleNoMoreBorrowThanLend:     DefaultMaxBorrowOverLend,
			model.RuleMaxTransactionPerWeek:    DefaultMaxTransactionsPerWeek,
			model.RuleMaxIncompleteTransaction: DefaultMaxIncompleteTransaction,
		},
	}
	e.Reload(config)
	return e
}

// Reload pulls current threshold values from configuration. Called again
// whenever an admin edits the settings.
func (e *RuleEngine) Reload(config map[string]string) {
	keys := map[string]string{
		model.RuleNoMoreBorrowThanLend:     model.ConfigMaxBorrowOverLend,
		model.RuleMaxTransactionPerWeek:    model.ConfigMaxTransactionsPerWeek,
		model.RuleMaxIncompleteTransaction: model.ConfigMaxIncompleteTransactions,
	}
	for rule, key := range keys {
		if v, err := strconv.Atoi(config[key]); err == nil {
			e.thresholds[rule] = v
		}
	}
}

// Violates reports whether the user currently violates the named rule.
// Returns ErrRuleDoesNotExist for unknown rule names.
func (e *RuleEngine) Violates(ctx context.Context, rule string, userID int64) (bool, error) {
	threshold, ok := e.thresholds[rule]
	if !ok {
		return false, ErrRuleDoesNotExist
	}

	switch rule {
	case model.RuleNoMoreBorrowThanLend:
		borrowed, lent, err := e.oneWayCounts(ctx, userID)
		if err != nil {
			return false, err
		}
		return borrowed-lent > threshold, nil

	case model.RuleMaxTransactionPerWeek:
		weekly, err := e.coordinator.WeeklyTransactionsOf(ctx, userID)
		if err != nil {
			return false, err
		}
		return len(weekly) >= threshold, nil

	case model.RuleMaxIncompleteTransaction:
		incomplete, err := e.coordinator.IncompleteTransactionsOf(ctx, userID)
		if err != nil {
			return false, err
		}
		return len(incomplete) >= threshold, nil
	}
	return false, ErrRuleDoesNotExist
}

// ViolatesAny reports whether the user violates at least one known rule.
func (e *RuleEngine) ViolatesAny(ctx context.Context, userID int64) (bool, error) {
	for _, rule := range []string{
		model.RuleNoMoreBorrowThanLend,
		model.RuleMaxTransactionPerWeek,
		model.RuleMaxIncompleteTransaction,
	} {
		violates, err := e.Violates(ctx, rule, userID)
		if err != nil {
			return false, err
		}
		if violates {
			return true, nil
		}
	}
	return false, nil
}

// oneWayCounts tallies how often the user was the borrower and how often the
// lender across one-way transactions. Two-way transactions balance out and
// are skipped.
func (e *RuleEngine) oneWayCounts(ctx context.Context, userID int64) (borrowed, lent int, err error) {
	transactions, err := e.coordinator.TransactionsOf(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	for i := range transactions {
		t := &transactions[i]
		if !t.OneWay() {
			continue
		}
		trade, err := store.GetTrade(ctx, e.db, t.TradeIDs[0])
		if err != nil {
			return 0, 0, err
		}
		if trade == nil {
			continue
		}
		if trade.BorrowerID == userID {
			borrowed++
		} else {
			lent++
		}
	}
	return borrowed, lent, nil
}
