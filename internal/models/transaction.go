package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType classifies a ledger record.
type OperationType string

const (
	OpDeposit  OperationType = "DEPOSIT"
	OpWithdraw OperationType = "WITHDRAW"
	OpTransfer OperationType = "TRANSFER"
)

// LedgerTransaction is one append-only ledger record. Records are never
// updated or deleted once written. A transfer produces two records, one per
// account, sharing the same amount and timestamp.
type LedgerTransaction struct {
	ID        string // assigned by the store
	AccountID int64
	Type      OperationType
	Amount    decimal.Decimal
	Timestamp time.Time
}
