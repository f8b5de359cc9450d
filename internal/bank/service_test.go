package bank_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banklab/concurrent-ledger/internal/bank"
	"github.com/banklab/concurrent-ledger/internal/engine"
	"github.com/banklab/concurrent-ledger/internal/models"
	"github.com/banklab/concurrent-ledger/internal/storage/memory"
)

func newService(t *testing.T) *bank.Service {
	t.Helper()
	svc := bank.NewService(memory.NewMemoryLedgerStore(), nil, engine.Config{Workers: 4})
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestOpenAccountRejectsNegativeBalance(t *testing.T) {
	svc := newService(t)

	_, err := svc.OpenAccount(context.Background(), "alice", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
}

func TestOpenAccountAssignsID(t *testing.T) {
	svc := newService(t)

	acct, err := svc.OpenAccount(context.Background(), "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.NotZero(t, acct.ID)
	assert.Equal(t, "alice", acct.OwnerName)

	// Zero opening balance is allowed.
	_, err = svc.OpenAccount(context.Background(), "bob", decimal.Zero)
	assert.NoError(t, err)
}

func TestAccountDetails(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	acct, err := svc.OpenAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	details, err := svc.AccountDetails(ctx, acct.ID)
	require.NoError(t, err)
	assert.Contains(t, details, "Owner Name = alice")
	assert.Contains(t, details, "Balance = 100.00")

	_, err = svc.AccountDetails(ctx, 404)
	assert.ErrorIs(t, err, engine.ErrAccountNotFound)
}

func TestDepositWithdrawTransferThroughService(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	alice, err := svc.OpenAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	bob, err := svc.OpenAccount(ctx, "bob", decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, svc.Deposit(alice.ID, decimal.NewFromInt(50)).Err())
	require.NoError(t, svc.Withdraw(alice.ID, decimal.NewFromInt(30)).Err())
	require.NoError(t, svc.Transfer(alice.ID, bob.ID, decimal.NewFromInt(20)).Err())

	details, err := svc.AccountDetails(ctx, alice.ID)
	require.NoError(t, err)
	assert.Contains(t, details, "Balance = 100.00")

	details, err = svc.AccountDetails(ctx, bob.ID)
	require.NoError(t, err)
	assert.Contains(t, details, "Balance = 20.00")
}

func TestHistoryListsAllRecords(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	alice, err := svc.OpenAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	bob, err := svc.OpenAccount(ctx, "bob", decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, svc.Deposit(alice.ID, decimal.NewFromInt(10)).Err())
	require.NoError(t, svc.Transfer(alice.ID, bob.ID, decimal.NewFromInt(5)).Err())

	history, err := svc.History(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OpDeposit, history[0].Type)
	assert.Equal(t, models.OpTransfer, history[1].Type)

	history, err = svc.History(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OpTransfer, history[0].Type)

	// Failed operations leave no records behind.
	assert.ErrorIs(t, svc.Withdraw(bob.ID, decimal.NewFromInt(1000)).Err(), engine.ErrInsufficientFunds)
	history, err = svc.History(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
