package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

func TestCreateAndGetAccount(t *testing.T) {
	store := NewMemoryLedgerStore()
	ctx := context.Background()

	acct, err := store.CreateAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, int64(1), acct.ID)

	got, err := store.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerName)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

	_, err = store.GetAccount(ctx, 99)
	assert.ErrorIs(t, err, interfaces.ErrAccountMissing)
}

func TestSessionCommitAppliesMutations(t *testing.T) {
	store := NewMemoryLedgerStore()
	ctx := context.Background()
	acct, err := store.CreateAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.AdjustBalance(ctx, acct.ID, decimal.NewFromInt(25)))
	rec, err := sess.AppendTransaction(ctx, models.LedgerTransaction{
		AccountID: acct.ID, Type: models.OpDeposit, Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID, "store assigns the record ID")
	assert.False(t, rec.Timestamp.IsZero())

	// Nothing is durable before commit.
	got, err := store.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

	require.NoError(t, sess.Commit())

	got, err = store.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(125)))

	records, err := store.TransactionsByAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestSessionRollbackDiscardsMutations(t *testing.T) {
	store := NewMemoryLedgerStore()
	ctx := context.Background()
	acct, err := store.CreateAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.AdjustBalance(ctx, acct.ID, decimal.NewFromInt(25)))
	_, err = sess.AppendTransaction(ctx, models.LedgerTransaction{
		AccountID: acct.ID, Type: models.OpDeposit, Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.NoError(t, sess.Rollback())
	require.NoError(t, sess.Close())

	got, err := store.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))

	records, err := store.TransactionsByAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestForUpdateHoldsRowUntilSessionEnds(t *testing.T) {
	store := NewMemoryLedgerStore()
	ctx := context.Background()
	acct, err := store.CreateAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = first.GetAccount(ctx, acct.ID, true)
	require.NoError(t, err)

	secondDone := make(chan decimal.Decimal, 1)
	go func() {
		sess, err := store.Begin(ctx)
		if err != nil {
			return
		}
		defer sess.Close()
		got, err := sess.GetAccount(ctx, acct.ID, true)
		if err != nil {
			return
		}
		secondDone <- got.Balance
	}()

	select {
	case <-secondDone:
		t.Fatal("second forUpdate read must block while the first session holds the row")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.AdjustBalance(ctx, acct.ID, decimal.NewFromInt(50)))
	require.NoError(t, first.Commit())

	select {
	case got := <-secondDone:
		assert.True(t, got.Equal(decimal.NewFromInt(150)), "second reader must see the committed value, got %s", got)
	case <-time.After(2 * time.Second):
		t.Fatal("second forUpdate read never unblocked after commit")
	}
}

func TestRepeatedForUpdateInOneSessionDoesNotSelfDeadlock(t *testing.T) {
	store := NewMemoryLedgerStore()
	ctx := context.Background()
	acct, err := store.CreateAccount(ctx, "alice", decimal.NewFromInt(100))
	require.NoError(t, err)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.GetAccount(ctx, acct.ID, true)
	require.NoError(t, err)
	_, err = sess.GetAccount(ctx, acct.ID, true)
	require.NoError(t, err)
}

func TestBeginAfterCloseFails(t *testing.T) {
	store := NewMemoryLedgerStore()
	require.NoError(t, store.Close())

	_, err := store.Begin(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrStoreClosed)
}
