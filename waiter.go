package bulkhead

// acquireResult is the settled outcome of a queued admission request:
// either a live token or a sentinel rejection error, never both.
type acquireResult struct {
	token *Token
	err   error
}

// waiter represents one pending request for a slot that could not be granted
// immediately. It settles exactly once — by grant, shutdown rejection, abort,
// or timeout — whichever fires first; every later trigger is a no-op.
//
// The settled flag is guarded by the owning Bulkhead's mutex. The done
// channel is buffered so the settling side never blocks; only the winning
// settlement writes to it.
type waiter struct {
	done    chan acquireResult
	settled bool
}

func newWaiter() *waiter {
	return &waiter{done: make(chan acquireResult, 1)}
}
