package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models"
	"github.com/banklab/concurrent-ledger/internal/models/events"
)

// reporter tracks one operation's event lifecycle: exactly one PENDING,
// then exactly one terminal COMPLETED or FAILED, never more. Operations
// failing before their natural PENDING point still emit both, with the
// predicted balance unknown.
type reporter struct {
	engine      *Engine
	worker      string
	opType      models.OperationType
	from        int64
	to          int64
	amount      decimal.Decimal
	start       time.Time
	predicted   decimal.Decimal
	pendingSent bool
}

func newReporter(e *Engine, worker string, opType models.OperationType, from, to int64, amount decimal.Decimal) *reporter {
	return &reporter{
		engine:    e,
		worker:    worker,
		opType:    opType,
		from:      from,
		to:        to,
		amount:    amount,
		start:     time.Now(),
		predicted: events.BalanceUnknown,
	}
}

func (r *reporter) event(status events.Status, actual decimal.Decimal, msg string) events.TransactionEvent {
	return events.TransactionEvent{
		Worker:           r.worker,
		Type:             string(r.opType),
		FromAccount:      r.from,
		ToAccount:        r.to,
		Amount:           r.amount,
		PredictedBalance: r.predicted,
		ActualBalance:    actual,
		StartTime:        r.start,
		Status:           status,
		Message:          msg,
	}
}

func (r *reporter) pending(predicted decimal.Decimal) {
	r.predicted = predicted
	r.pendingSent = true
	r.engine.publisher.Notify(r.event(events.StatusPending, events.BalanceUnknown, ""))
}

func (r *reporter) completed(actual decimal.Decimal) {
	r.engine.publisher.Notify(r.event(events.StatusCompleted, actual, ""))
}

func (r *reporter) failed(msg string) {
	if !r.pendingSent {
		r.pending(events.BalanceUnknown)
	}
	r.engine.publisher.Notify(r.event(events.StatusFailed, events.BalanceUnknown, msg))
}

// fail rolls back the open session if any, publishes the FAILED event and
// maps the error for the caller: business errors pass through untouched,
// everything else is logged and wrapped into ErrInfrastructure so store
// internals never leak past the engine.
func (e *Engine) fail(r *reporter, sess interfaces.Session, err error) error {
	if sess != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			e.logger.Error("rollback failed", zap.Error(rbErr),
				zap.String("op", string(r.opType)), zap.String("worker", r.worker))
		}
	}

	if IsBusiness(err) {
		e.logger.Warn("operation rejected", zap.Error(err),
			zap.String("op", string(r.opType)),
			zap.Int64("from", r.from), zap.Int64("to", r.to),
			zap.String("amount", r.amount.String()))
		r.failed(err.Error())
		return err
	}

	e.logger.Error("operation failed", zap.Error(err),
		zap.String("op", string(r.opType)),
		zap.Int64("from", r.from), zap.Int64("to", r.to),
		zap.String("amount", r.amount.String()),
		zap.String("worker", r.worker))
	r.failed("system error")
	return fmt.Errorf("%w: %v", ErrInfrastructure, err)
}
