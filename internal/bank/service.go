// Package bank is the caller-facing surface of the ledger: account opening,
// asynchronous deposit/withdraw/transfer, and read-side queries. All mutation
// goes through the transaction engine; the service itself holds no state.
package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/engine"
	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

type Service struct {
	store  interfaces.LedgerStore
	engine *engine.Engine
	logger *zap.Logger
}

func NewService(store interfaces.LedgerStore, logger *zap.Logger, cfg engine.Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		engine: engine.New(store, nil, logger, cfg),
		logger: logger,
	}
}

// Attach registers a subscriber for transaction lifecycle events.
func (s *Service) Attach(sub interfaces.Subscriber) {
	s.engine.Publisher().Attach(sub)
}

// Detach removes a previously attached subscriber.
func (s *Service) Detach(sub interfaces.Subscriber) {
	s.engine.Publisher().Detach(sub)
}

// OpenAccount creates an account synchronously. A negative initial balance
// is rejected before anything is persisted.
func (s *Service) OpenAccount(ctx context.Context, owner string, initialBalance decimal.Decimal) (models.Account, error) {
	if initialBalance.IsNegative() {
		return models.Account{}, engine.ErrInvalidAmount
	}

	acct, err := s.store.CreateAccount(ctx, owner, initialBalance)
	if err != nil {
		s.logger.Error("open account failed", zap.Error(err), zap.String("owner", owner))
		return models.Account{}, fmt.Errorf("%w: %v", engine.ErrInfrastructure, err)
	}
	return acct, nil
}

// Deposit enqueues a deposit; the outcome arrives through the handle.
func (s *Service) Deposit(accountID int64, amount decimal.Decimal) *engine.Handle {
	return s.engine.Deposit(accountID, amount)
}

// Withdraw enqueues a withdrawal; the outcome arrives through the handle.
func (s *Service) Withdraw(accountID int64, amount decimal.Decimal) *engine.Handle {
	return s.engine.Withdraw(accountID, amount)
}

// Transfer enqueues a transfer; the outcome arrives through the handle.
func (s *Service) Transfer(fromID, toID int64, amount decimal.Decimal) *engine.Handle {
	return s.engine.Transfer(fromID, toID, amount)
}

// AccountDetails returns the display string for one account.
func (s *Service) AccountDetails(ctx context.Context, accountID int64) (string, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, interfaces.ErrAccountMissing) {
		return "", engine.ErrAccountNotFound
	}
	if err != nil {
		s.logger.Error("account lookup failed", zap.Error(err), zap.Int64("account", accountID))
		return "", fmt.Errorf("%w: %v", engine.ErrInfrastructure, err)
	}
	return acct.Details(), nil
}

// History returns the append-only ledger records for one account.
func (s *Service) History(ctx context.Context, accountID int64) ([]models.LedgerTransaction, error) {
	records, err := s.store.TransactionsByAccount(ctx, accountID)
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err), zap.Int64("account", accountID))
		return nil, fmt.Errorf("%w: %v", engine.ErrInfrastructure, err)
	}
	return records, nil
}

// Close drains the engine and closes the store.
func (s *Service) Close() error {
	return s.engine.Close()
}
