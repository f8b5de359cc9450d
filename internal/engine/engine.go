// Package engine executes ledger operations on a bounded worker pool.
// Conflicting operations on the same account are serialized through the lock
// registry; operations on disjoint accounts run in parallel.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/events"
	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/locks"
	"github.com/banklab/concurrent-ledger/internal/models"
)

const (
	// DefaultWorkers caps concurrent store-connection usage.
	DefaultWorkers = 13
	// DefaultShutdownGrace bounds how long Close waits for the backlog.
	DefaultShutdownGrace = 60 * time.Second
)

// Config sizes the engine. Zero values fall back to the defaults above.
type Config struct {
	Workers       int
	ShutdownGrace time.Duration
}

type task struct {
	run    func(worker string) error
	handle *Handle
}

// Engine owns the worker pool, the lock registry and the event publisher.
// The backlog is unbounded; admission control is the caller's concern.
type Engine struct {
	store     interfaces.LedgerStore
	registry  *locks.Registry
	publisher *events.Publisher
	logger    *zap.Logger
	grace     time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
	wg     sync.WaitGroup
}

func New(store interfaces.LedgerStore, publisher *events.Publisher, logger *zap.Logger, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultShutdownGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewPublisher(logger)
	}

	e := &Engine{
		store:     store,
		registry:  locks.NewRegistry(),
		publisher: publisher,
		logger:    logger,
		grace:     cfg.ShutdownGrace,
	}
	e.cond = sync.NewCond(&e.mu)

	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker(fmt.Sprintf("worker-%d", i+1))
	}
	return e
}

// Publisher exposes the event fan-out so callers can attach subscribers.
func (e *Engine) Publisher() *events.Publisher {
	return e.publisher
}

// Deposit enqueues a deposit and returns its handle immediately.
func (e *Engine) Deposit(accountID int64, amount decimal.Decimal) *Handle {
	op := &singleAccountOp{engine: e, opType: models.OpDeposit, accountID: accountID, amount: amount}
	return e.submit(op.run)
}

// Withdraw enqueues a withdrawal and returns its handle immediately.
func (e *Engine) Withdraw(accountID int64, amount decimal.Decimal) *Handle {
	op := &singleAccountOp{engine: e, opType: models.OpWithdraw, accountID: accountID, amount: amount}
	return e.submit(op.run)
}

// Transfer enqueues a two-account transfer and returns its handle
// immediately.
func (e *Engine) Transfer(fromID, toID int64, amount decimal.Decimal) *Handle {
	op := &transferOp{engine: e, fromID: fromID, toID: toID, amount: amount}
	return e.submit(op.run)
}

func (e *Engine) submit(run func(worker string) error) *Handle {
	h := newHandle()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		h.complete(ErrEngineClosed)
		return h
	}
	e.queue = append(e.queue, task{run: run, handle: h})
	e.cond.Signal()
	e.mu.Unlock()

	return h
}

func (e *Engine) worker(name string) {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		t := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		t.handle.complete(t.run(name))
	}
}

// Close stops accepting work, drains the backlog for up to the grace period,
// then cancels whatever is still queued. In-flight operations always run to
// completion. The store is closed last, regardless of how draining went.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(e.grace):
		e.mu.Lock()
		cancelled := e.queue
		e.queue = nil
		e.cond.Broadcast()
		e.mu.Unlock()

		for _, t := range cancelled {
			t.handle.complete(ErrEngineClosed)
		}
		e.logger.Warn("shutdown grace expired, backlog cancelled",
			zap.Int("cancelled", len(cancelled)))
		<-drained
	}

	return e.store.Close()
}
