package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle phase of an operation as seen by subscribers.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// BalanceUnknown marks the actual balance on events published before commit
// or after a failure.
var BalanceUnknown = decimal.NewFromInt(-1)

// TransactionEvent is the ephemeral reporting record broadcast to
// subscribers. It is never persisted. An operation publishes exactly one
// PENDING event and exactly one terminal (COMPLETED or FAILED) event; a
// terminal event is never followed by another for the same operation.
type TransactionEvent struct {
	Worker           string          `json:"worker"`
	Type             string          `json:"type"`
	FromAccount      int64           `json:"from_account"`
	ToAccount        int64           `json:"to_account,omitempty"` // zero for single-account operations
	Amount           decimal.Decimal `json:"amount"`
	PredictedBalance decimal.Decimal `json:"predicted_balance"`
	ActualBalance    decimal.Decimal `json:"actual_balance"`
	StartTime        time.Time       `json:"start_time"`
	Status           Status          `json:"status"`
	Message          string          `json:"message,omitempty"`
}

// Terminal reports whether the event closes the operation's lifecycle.
func (e TransactionEvent) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
