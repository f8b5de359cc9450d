package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/banklab/concurrent-ledger/internal/models"
)

// LedgerStore is the transactional persistence boundary for accounts and the
// append-only transaction log. Implementations must support row-level locking
// semantics for forUpdate reads inside a Session.
type LedgerStore interface {
	// Begin opens a transactional session. Every mutation goes through a
	// session; nothing is durable until Commit.
	Begin(ctx context.Context) (Session, error)

	// CreateAccount persists a new account and returns it with the
	// store-assigned ID.
	CreateAccount(ctx context.Context, owner string, initial decimal.Decimal) (models.Account, error)

	// GetAccount reads an account outside any session, without locking.
	GetAccount(ctx context.Context, id int64) (models.Account, error)

	// TransactionsByAccount returns the ledger records for one account.
	TransactionsByAccount(ctx context.Context, id int64) ([]models.LedgerTransaction, error)

	Close() error
}

// Session is one store transaction. Commit or Rollback ends it; Close
// releases any row locks still held and must always be called.
type Session interface {
	// GetAccount reads an account inside the transaction. With forUpdate the
	// row stays locked until the session ends, so the returned balance is
	// the freshest committed value and cannot change underneath the caller.
	GetAccount(ctx context.Context, id int64, forUpdate bool) (models.Account, error)

	// AdjustBalance applies a signed delta to the account's balance.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) error

	// AppendTransaction writes one ledger record and returns it with the
	// store-assigned ID.
	AppendTransaction(ctx context.Context, tx models.LedgerTransaction) (models.LedgerTransaction, error)

	Commit() error
	Rollback() error
	Close() error
}
