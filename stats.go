package bulkhead

// Stats is a point-in-time snapshot of a bulkhead's counters. Reading it has
// no side effects: the pending count is maintained incrementally by the
// engine, so taking a snapshot never prunes or otherwise touches the queue.
type Stats struct {
	Name             string `json:"name,omitempty"`
	InFlight         int    `json:"in_flight"`
	Pending          int    `json:"pending"`
	ConcurrencyLimit int    `json:"concurrency_limit"`
	QueueLimit       int    `json:"queue_limit"`
	Closed           bool   `json:"closed"`

	// Debug counters. Aborted, TimedOut and Rejected track expected
	// admission outcomes. DoubleReleases and Underflows track caller-side
	// defects: a nonzero value means some caller released a token more
	// times than it was granted.
	Aborted        uint64 `json:"aborted"`
	TimedOut       uint64 `json:"timed_out"`
	Rejected       uint64 `json:"rejected"`
	DoubleReleases uint64 `json:"double_releases"`
	Underflows     uint64 `json:"underflows"`
}

// Stats returns a consistent snapshot of the bulkhead's current state.
func (b *Bulkhead) Stats() Stats {
	b.mu.Lock()
	s := Stats{
		Name:             b.name,
		InFlight:         b.inFlight,
		Pending:          b.livePending,
		ConcurrencyLimit: b.concurrencyLimit,
		QueueLimit:       b.queueLimit,
		Closed:           b.closed,
	}
	b.mu.Unlock()

	s.Aborted = b.aborted.Load()
	s.TimedOut = b.timedOut.Load()
	s.Rejected = b.rejected.Load()
	s.DoubleReleases = b.doubleReleases.Load()
	s.Underflows = b.underflows.Load()

	return s
}
