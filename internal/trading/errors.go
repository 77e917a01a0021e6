package trading

import "errors"

// Typed domain failures. These propagate to the calling layer as recoverable
// errors; the caller decides whether to re-prompt or abandon the action.
var (
	ErrTooManyEditions         = errors.New("meeting edited too many times")
	ErrEditAgreedMeeting       = errors.New("meeting is already agreed")
	ErrMeetingDoesNotExist     = errors.New("meeting does not exist")
	ErrTransactionDoesNotExist = errors.New("transaction does not exist")
	ErrRuleDoesNotExist        = errors.New("rule does not exist")
)
