package interfaces

import "github.com/banklab/concurrent-ledger/internal/models/events"

// Subscriber receives transaction lifecycle events. Implementations must not
// assume they run on any particular goroutine; delivery happens on the worker
// executing the operation.
type Subscriber interface {
	OnTransactionEvent(event events.TransactionEvent)
}
