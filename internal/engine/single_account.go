package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
)

// singleAccountOp is the shared template for deposit and withdrawal:
// validate, lock the account, read it for update, check funds for a
// withdrawal against the freshest value, apply the delta, append the ledger
// record and commit. Any failure before commit rolls back.
type singleAccountOp struct {
	engine    *Engine
	opType    models.OperationType
	accountID int64
	amount    decimal.Decimal
}

func (op *singleAccountOp) run(worker string) error {
	e := op.engine
	r := newReporter(e, worker, op.opType, op.accountID, 0, op.amount)
	ctx := context.Background()

	if !op.amount.IsPositive() {
		return e.fail(r, nil, ErrInvalidAmount)
	}

	lock := e.registry.LockFor(op.accountID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Begin(ctx)
	if err != nil {
		return e.fail(r, nil, err)
	}
	defer sess.Close()

	acct, err := sess.GetAccount(ctx, op.accountID, true)
	if errors.Is(err, interfaces.ErrAccountMissing) {
		return e.fail(r, sess, ErrAccountNotFound)
	}
	if err != nil {
		return e.fail(r, sess, err)
	}

	delta := op.amount
	if op.opType == models.OpWithdraw {
		// Checked under the row lock, never against a stale read.
		if acct.Balance.LessThan(op.amount) {
			return e.fail(r, sess, ErrInsufficientFunds)
		}
		delta = op.amount.Neg()
	}

	predicted := acct.Balance.Add(delta)
	r.pending(predicted)

	if err := sess.AdjustBalance(ctx, op.accountID, delta); err != nil {
		return e.fail(r, sess, err)
	}
	rec := models.LedgerTransaction{AccountID: op.accountID, Type: op.opType, Amount: op.amount}
	if _, err := sess.AppendTransaction(ctx, rec); err != nil {
		return e.fail(r, sess, err)
	}
	if err := sess.Commit(); err != nil {
		return e.fail(r, sess, err)
	}

	r.completed(predicted)
	return nil
}
