package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

// transferOp moves money between two accounts atomically. Both account locks
// are taken in ascending ID order and released in reverse; this fixed total
// order is what prevents circular wait between opposite-direction transfers
// on the same pair.
type transferOp struct {
	engine *Engine
	fromID int64
	toID   int64
	amount decimal.Decimal
}

func (op *transferOp) run(worker string) error {
	e := op.engine
	r := newReporter(e, worker, models.OpTransfer, op.fromID, op.toID, op.amount)
	ctx := context.Background()

	if !op.amount.IsPositive() || op.fromID == op.toID {
		return e.fail(r, nil, ErrInvalidAmount)
	}

	firstID, secondID := op.fromID, op.toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	firstLock := e.registry.LockFor(firstID)
	secondLock := e.registry.LockFor(secondID)

	firstLock.Lock()
	secondLock.Lock()
	defer firstLock.Unlock()
	defer secondLock.Unlock() // deferred last, released first

	sess, err := e.store.Begin(ctx)
	if err != nil {
		return e.fail(r, nil, err)
	}
	defer sess.Close()

	// Row locks follow the same ascending order as the account locks.
	accounts := make(map[int64]models.Account, 2)
	for _, id := range []int64{firstID, secondID} {
		acct, err := sess.GetAccount(ctx, id, true)
		if errors.Is(err, interfaces.ErrAccountMissing) {
			return e.fail(r, sess, ErrAccountNotFound)
		}
		if err != nil {
			return e.fail(r, sess, err)
		}
		accounts[id] = acct
	}
	src, dst := accounts[op.fromID], accounts[op.toID]

	if src.Balance.LessThan(op.amount) {
		return e.fail(r, sess, ErrInsufficientFunds)
	}

	r.pending(dst.Balance.Add(op.amount))

	if err := sess.AdjustBalance(ctx, op.fromID, op.amount.Neg()); err != nil {
		return e.fail(r, sess, err)
	}
	if err := sess.AdjustBalance(ctx, op.toID, op.amount); err != nil {
		return e.fail(r, sess, err)
	}

	// Two legs of the same transfer share one logical timestamp.
	now := time.Now()
	for _, id := range []int64{op.fromID, op.toID} {
		rec := models.LedgerTransaction{AccountID: id, Type: models.OpTransfer, Amount: op.amount, Timestamp: now}
		if _, err := sess.AppendTransaction(ctx, rec); err != nil {
			return e.fail(r, sess, err)
		}
	}

	if err := sess.Commit(); err != nil {
		return e.fail(r, sess, err)
	}

	// The transfer is durable at this point; a failed confirmation read only
	// degrades the event's actual balance to the prediction.
	actual := dst.Balance.Add(op.amount)
	if committed, err := e.store.GetAccount(ctx, op.toID); err == nil {
		actual = committed.Balance
	} else {
		e.logger.Warn("post-commit balance read failed", zap.Error(err),
			zap.Int64("account", op.toID))
	}

	r.completed(actual)
	return nil
}
