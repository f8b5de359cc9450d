package engine

import "context"

// Handle tracks one submitted operation. The caller can wait on it, poll it,
// or abandon it; abandoning a handle never cancels the operation, which still
// runs to completion and publishes its terminal event.
type Handle struct {
	done chan struct{}
	err  error // written once, before done is closed
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) complete(err error) {
	h.err = err
	close(h.done)
}

// Done returns a channel closed when the operation reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// IsDone reports completion without blocking.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the operation completes or ctx is done. A ctx error
// means the wait was abandoned, not that the operation failed.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err blocks until completion and returns the operation's outcome.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}
