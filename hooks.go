package bulkhead

// Hooks holds optional callback functions for admission lifecycle events.
// All fields are nil by default; callers set only the hooks they care about.
// Once constructed, a Hooks value must not be mutated — emit methods read the
// function fields without synchronisation, which is safe as long as the
// struct is read-only after initialisation.
//
// Hooks are invoked synchronously but never while the engine lock is held,
// so a hook may call [Bulkhead.Stats] safely.
//
// Pattern: Observer — decouples admission event emission from consumers
// (logging, metrics, alerting) without the engine knowing about observers.
type Hooks struct {
	OnAcquired func()
	OnReleased func()
	OnEnqueued func()
	OnRejected func(reason Reason)
	OnClosed   func()
	OnDrained  func()
}

func (h *Hooks) emitAcquired() {
	if h.OnAcquired != nil {
		h.OnAcquired()
	}
}

func (h *Hooks) emitReleased() {
	if h.OnReleased != nil {
		h.OnReleased()
	}
}

func (h *Hooks) emitEnqueued() {
	if h.OnEnqueued != nil {
		h.OnEnqueued()
	}
}

func (h *Hooks) emitRejected(reason Reason) {
	if h.OnRejected != nil {
		h.OnRejected(reason)
	}
}

func (h *Hooks) emitClosed() {
	if h.OnClosed != nil {
		h.OnClosed()
	}
}

func (h *Hooks) emitDrained() {
	if h.OnDrained != nil {
		h.OnDrained()
	}
}
