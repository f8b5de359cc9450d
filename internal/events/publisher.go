// Package events fans transaction lifecycle events out to subscribers such as
// the console tracker or a Kafka sink.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/models/events"
)

// Publisher delivers events synchronously to all attached subscribers in
// attachment order. Attach and Detach may race with Notify; Notify works on a
// snapshot of the subscriber set, so a concurrent mutation affects later
// notifications only.
type Publisher struct {
	mu          sync.RWMutex
	subscribers []interfaces.Subscriber
	logger      *zap.Logger
}

func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) Attach(s interfaces.Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, s)
}

// Detach removes the first occurrence of s. Detaching a subscriber that was
// never attached is a no-op.
func (p *Publisher) Detach(s interfaces.Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subscribers {
		if sub == s {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

// Notify delivers the event to every current subscriber. A panicking
// subscriber is logged and skipped; it never propagates into the operation
// that published the event.
func (p *Publisher) Notify(event events.TransactionEvent) {
	p.mu.RLock()
	subs := make([]interfaces.Subscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()

	for _, s := range subs {
		p.deliver(s, event)
	}
}

func (p *Publisher) deliver(s interfaces.Subscriber, event events.TransactionEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("subscriber panicked during notify",
				zap.Any("panic", r),
				zap.String("status", string(event.Status)),
				zap.String("type", event.Type))
		}
	}()
	s.OnTransactionEvent(event)
}
