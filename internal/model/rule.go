package model

// System rule names checked by the rule engine.
const (
	RuleNoMoreBorrowThanLend     = "NoMoreBorrowThanLend"
	RuleMaxTransactionPerWeek    = "MaxTransactionPerWeek"
	RuleMaxIncompleteTransaction = "MaxIncompleteTransaction"
)

// Configuration keys for runtime-editable thresholds.
const (
	ConfigMaxMeetingEdits           = "maxMeetingEdits"
	ConfigMaxIncompleteTransactions = "maxIncompleteTransactions"
	ConfigMaxTransactionsPerWeek    = "maxTransactionsPerWeek"
	ConfigMaxBorrowOverLend         = "maxBorrowOverLend"
)
