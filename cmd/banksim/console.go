package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/banklab/concurrent-ledger/internal/models/events"
)

// consoleSubscriber prints the event feed the way the thread-tracker panel
// displayed it: one line per lifecycle change.
type consoleSubscriber struct {
	mu sync.Mutex
}

func (c *consoleSubscriber) OnTransactionEvent(e events.TransactionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	actual := "N/A"
	if !e.ActualBalance.Equal(events.BalanceUnknown) {
		actual = e.ActualBalance.StringFixed(2)
	}
	predicted := "N/A"
	if !e.PredictedBalance.Equal(events.BalanceUnknown) {
		predicted = e.PredictedBalance.StringFixed(2)
	}
	target := "N/A"
	if e.ToAccount != 0 {
		target = fmt.Sprintf("%d", e.ToAccount)
	}

	fmt.Fprintf(os.Stdout, "%-10s %-9s acct=%-4d target=%-4s amount=%-10s predicted=%-10s actual=%-10s %-9s %s\n",
		e.Worker, e.Type, e.FromAccount, target, e.Amount.StringFixed(2), predicted, actual, e.Status, e.Message)
}
