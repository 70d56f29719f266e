package bulkhead

import "sync/atomic"

// Token represents one held concurrency slot. Exactly one Token exists per
// successful grant; the holder must call [Token.Release] to return the slot.
//
// Pattern: Handle — the slot itself is engine-private; the token is the sole
// caller-facing capability over it, with exactly one effective release
// enforced lock-free via atomic CAS.
type Token struct {
	owner    *Bulkhead
	released atomic.Bool
}

// Release returns the slot to the bulkhead and pumps the wait queue. The
// first call wins; later calls are safe no-ops counted in
// [Stats.DoubleReleases].
func (t *Token) Release() {
	if !t.released.CompareAndSwap(false, true) {
		t.owner.doubleReleases.Add(1)
		return
	}

	t.owner.releaseSlot()
}

// Released reports whether the token has already been released.
func (t *Token) Released() bool { return t.released.Load() }
