package bulkhead

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Bulkhead bounds concurrent execution of work and optionally parks excess
// requests in a bounded FIFO wait queue. It protects a process from overload
// by rejecting work early rather than letting queues or timeouts grow
// unbounded.
//
// Pattern: Bulkhead — admission control with a fixed slot count and a
// bounded backlog; all state mutation funnels through one mutex, so counter
// updates, queue operations and waiter settlement never interleave.
type Bulkhead struct {
	name             string
	concurrencyLimit int
	queueLimit       int
	clock            Clock
	hooks            *Hooks

	mu          sync.Mutex
	inFlight    int
	livePending int
	closed      bool
	queue       waiterQueue
	drainers    []chan struct{}

	aborted        atomic.Uint64
	timedOut       atomic.Uint64
	rejected       atomic.Uint64
	doubleReleases atomic.Uint64
	underflows     atomic.Uint64
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Option configures a Bulkhead at construction time.
type Option func(*settings)

// settings holds configuration collected by New before validation.
type settings struct {
	queueLimit int
	name       string
	clock      Clock
	hooks      *Hooks
	registry   *Registry
}

// WithQueueLimit sets the maximum number of requests allowed to wait for a
// slot. Zero (the default) disables waiting entirely: Acquire then behaves
// like TryAcquire.
func WithQueueLimit(n int) Option {
	return func(s *settings) { s.queueLimit = n }
}

// WithName names the bulkhead. Named bulkheads auto-register with a
// [Registry] for readiness reporting.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithClock sets the clock used for wait timeouts. Defaults to [RealClock].
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithHooks sets the lifecycle hooks invoked on admission events.
func WithHooks(h *Hooks) Option {
	return func(s *settings) { s.hooks = h }
}

// WithRegistry sets an explicit registry for the bulkhead to register with.
// If not provided, named bulkheads auto-register with [DefaultRegistry].
func WithRegistry(reg *Registry) Option {
	return func(s *settings) { s.registry = reg }
}

// New creates a Bulkhead allowing at most concurrencyLimit simultaneous
// holders. It fails if concurrencyLimit is not positive or if a negative
// queue limit is configured; a Bulkhead is never partially constructed.
func New(concurrencyLimit int, opts ...Option) (*Bulkhead, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if concurrencyLimit <= 0 {
		return nil, fmt.Errorf(
			"bulkhead: concurrency limit must be positive, got %d",
			concurrencyLimit,
		)
	}

	if s.queueLimit < 0 {
		return nil, fmt.Errorf(
			"bulkhead: queue limit must not be negative, got %d",
			s.queueLimit,
		)
	}

	if s.clock == nil {
		s.clock = RealClock{}
	}

	if s.hooks == nil {
		s.hooks = &Hooks{}
	}

	b := &Bulkhead{
		name:             s.name,
		concurrencyLimit: concurrencyLimit,
		queueLimit:       s.queueLimit,
		clock:            s.clock,
		hooks:            s.hooks,
	}

	// Auto-register if the bulkhead has a name.
	if s.name != "" {
		reg := s.registry
		if reg == nil {
			reg = DefaultRegistry()
		}

		reg.Register(b)
	}

	return b, nil
}

// Name returns the bulkhead's name, empty for anonymous instances.
func (b *Bulkhead) Name() string { return b.name }

// ---------------------------------------------------------------------------
// Per-call acquisition options
// ---------------------------------------------------------------------------

// AcquireOption configures a single Acquire, Run or Do call.
type AcquireOption func(*acquireSettings)

type acquireSettings struct {
	waitTimeout    time.Duration
	hasWaitTimeout bool
}

// WithWaitTimeout bounds how long the call may wait for a slot. The timeout
// covers the waiting phase only; it has no effect once a slot is granted.
// A non-positive d rejects with [ErrTimeout] whenever the call would
// otherwise wait.
func WithWaitTimeout(d time.Duration) AcquireOption {
	return func(s *acquireSettings) {
		s.waitTimeout = d
		s.hasWaitTimeout = true
	}
}

// ---------------------------------------------------------------------------
// Acquisition
// ---------------------------------------------------------------------------

// TryAcquire acquires a slot without waiting and without touching the wait
// queue. It returns [ErrShutdown] after Close, [ErrConcurrencyLimit] when
// all slots are in use, and a live [Token] otherwise.
func (b *Bulkhead) TryAcquire() (*Token, error) {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()

		return nil, b.reject(ErrShutdown)
	}

	if b.inFlight < b.concurrencyLimit {
		b.inFlight++
		b.mu.Unlock()
		b.hooks.emitAcquired()

		return &Token{owner: b}, nil
	}

	b.mu.Unlock()

	return nil, b.reject(ErrConcurrencyLimit)
}

// Acquire acquires a slot, waiting in bounded FIFO order when all slots are
// in use and queue space remains. ctx is the cancellation signal for the
// waiting phase only: cancelling it settles the request with [ErrAborted]
// but never interrupts work that already holds a token.
//
// Waiters are granted slots in strict arrival order among survivors; a
// waiter that aborts or times out never consumes a grant and never blocks
// the waiters behind it.
func (b *Bulkhead) Acquire(ctx context.Context, opts ...AcquireOption) (*Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var s acquireSettings
	for _, opt := range opts {
		opt(&s)
	}

	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()

		return nil, b.reject(ErrShutdown)
	}

	if b.inFlight < b.concurrencyLimit {
		b.inFlight++
		b.mu.Unlock()
		b.hooks.emitAcquired()

		return &Token{owner: b}, nil
	}

	if b.queueLimit == 0 {
		b.mu.Unlock()

		return nil, b.reject(ErrConcurrencyLimit)
	}

	if b.livePending >= b.queueLimit {
		b.mu.Unlock()

		return nil, b.reject(ErrQueueLimit)
	}

	// An already-cancelled signal settles before entering the live set.
	if ctx.Err() != nil {
		b.mu.Unlock()
		b.aborted.Add(1)

		return nil, b.reject(ErrAborted)
	}

	// An immediate timeout applies only to a call that would truly wait.
	if s.hasWaitTimeout && s.waitTimeout <= 0 {
		b.mu.Unlock()
		b.timedOut.Add(1)

		return nil, b.reject(ErrTimeout)
	}

	w := newWaiter()
	b.livePending++
	b.queue.pushBack(w)
	b.mu.Unlock()
	b.hooks.emitEnqueued()

	var timerC <-chan time.Time

	if s.hasWaitTimeout {
		timer := b.clock.NewTimer(s.waitTimeout)
		defer timer.Stop()

		timerC = timer.C()
	}

	select {
	case res := <-w.done:
		return res.token, res.err

	case <-ctx.Done():
		if b.settle(w) {
			b.aborted.Add(1)

			return nil, b.reject(ErrAborted)
		}
		// Lost the race against a concurrent grant or shutdown; the real
		// outcome is already buffered.
		res := <-w.done

		return res.token, res.err

	case <-timerC:
		if b.settle(w) {
			b.timedOut.Add(1)

			return nil, b.reject(ErrTimeout)
		}

		res := <-w.done

		return res.token, res.err
	}
}

// Run acquires a slot, invokes fn, and releases the slot on every exit path,
// including a panic in fn. On admission failure it returns the sentinel
// rejection error without invoking fn. Errors returned by fn propagate
// unchanged.
//
// ctx is passed through to fn for advisory observation; the bulkhead never
// forcibly interrupts in-flight work.
func (b *Bulkhead) Run(ctx context.Context, fn func(context.Context) error, opts ...AcquireOption) error {
	token, err := b.Acquire(ctx, opts...)
	if err != nil {
		return err
	}

	defer token.Release()

	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Shutdown and drain
// ---------------------------------------------------------------------------

// Close stops admission permanently. Every queued waiter settles immediately
// with [ErrShutdown]; subsequent TryAcquire, Acquire and Run calls reject
// with [ErrShutdown] unconditionally. Outstanding tokens are untouched and
// still release normally. Close is idempotent and irreversible.
func (b *Bulkhead) Close() {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()

		return
	}

	b.closed = true

	shutdownRejected := 0

	for {
		w, ok := b.queue.popFront()
		if !ok {
			break
		}

		if w.settled {
			continue
		}

		w.settled = true
		b.livePending--
		w.done <- acquireResult{err: ErrShutdown}
		shutdownRejected++
	}

	drained := b.notifyDrainersLocked()
	b.mu.Unlock()

	b.rejected.Add(uint64(shutdownRejected))

	for i := 0; i < shutdownRejected; i++ {
		b.hooks.emitRejected(ReasonShutdown)
	}

	b.hooks.emitClosed()

	if drained {
		b.hooks.emitDrained()
	}
}

// Closed reports whether Close has been called.
func (b *Bulkhead) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// Drain blocks until no work is in flight and no request is pending, or
// until ctx is cancelled. It is purely observational: it neither stops new
// admissions nor times out on its own, so under sustained load a Drain
// without a prior Close can be held off indefinitely by newly queued work.
// Compose with Close to stop admission first. Concurrent Drain calls all
// return at the same quiescence event.
func (b *Bulkhead) Drain(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()

	if b.inFlight == 0 && b.livePending == 0 {
		b.mu.Unlock()

		return nil
	}

	quiesced := make(chan struct{})
	b.drainers = append(b.drainers, quiesced)
	b.mu.Unlock()

	select {
	case <-quiesced:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // preserving context error identity
	}
}

// ---------------------------------------------------------------------------
// Engine internals
// ---------------------------------------------------------------------------

// releaseSlot returns one slot and hands freed capacity to queued waiters.
// Called exactly once per token, from Token.Release.
func (b *Bulkhead) releaseSlot() {
	b.mu.Lock()

	if b.inFlight == 0 {
		// More releases than grants is a caller bug; clamp and count
		// rather than letting the in-flight count go negative.
		b.underflows.Add(1)
	} else {
		b.inFlight--
	}

	granted := b.pumpLocked()
	drained := b.notifyDrainersLocked()
	b.mu.Unlock()

	b.hooks.emitReleased()

	for i := 0; i < granted; i++ {
		b.hooks.emitAcquired()
	}

	if drained {
		b.hooks.emitDrained()
	}
}

// pumpLocked prunes dead entries from the queue front and grants freed
// slots to live waiters in FIFO order. It returns the number of grants so
// the caller can emit hooks after unlocking.
func (b *Bulkhead) pumpLocked() int {
	granted := 0

	for {
		for {
			w, ok := b.queue.peekFront()
			if !ok {
				return granted
			}

			if !w.settled {
				break
			}

			b.queue.popFront()
		}

		if b.inFlight >= b.concurrencyLimit {
			return granted
		}

		w, _ := b.queue.popFront()
		w.settled = true
		b.inFlight++
		b.livePending--
		w.done <- acquireResult{token: &Token{owner: b}}
		granted++
	}
}

// settle marks w dead from the waiting caller's side (abort or timeout) and
// reclaims its queue space immediately. It reports whether this settlement
// won; a false return means the waiter was already granted or
// shutdown-rejected and the outcome is buffered on w.done. The entry itself
// stays in the queue until the pump prunes it from the front.
func (b *Bulkhead) settle(w *waiter) bool {
	b.mu.Lock()

	if w.settled {
		b.mu.Unlock()

		return false
	}

	w.settled = true
	b.livePending--
	drained := b.notifyDrainersLocked()
	b.mu.Unlock()

	if drained {
		b.hooks.emitDrained()
	}

	return true
}

// notifyDrainersLocked releases all Drain observers once quiescence is
// reached. It reports whether any observer was released.
func (b *Bulkhead) notifyDrainersLocked() bool {
	if b.inFlight != 0 || b.livePending != 0 || len(b.drainers) == 0 {
		return false
	}

	for _, quiesced := range b.drainers {
		close(quiesced)
	}

	b.drainers = nil

	return true
}

// reject counts a rejection and emits the matching hook. The sentinel is
// returned unchanged so callers can use errors.Is directly.
func (b *Bulkhead) reject(sentinel error) error {
	b.rejected.Add(1)

	if reason, ok := ReasonOf(sentinel); ok {
		b.hooks.emitRejected(reason)
	}

	return sentinel
}
