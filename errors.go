package bulkhead

import "errors"

// ---------------------------------------------------------------------------
// Rejection reasons and sentinel errors
// ---------------------------------------------------------------------------

// Reason identifies why an admission request was rejected. The set of
// reasons is closed; callers can branch on it to apply their own shedding
// policy.
type Reason string

// Rejection reasons.
const (
	// ReasonConcurrencyLimit means no free slot exists and no waiting is
	// possible or configured.
	ReasonConcurrencyLimit Reason = "concurrency_limit"
	// ReasonQueueLimit means waiting is configured but the wait queue is full.
	ReasonQueueLimit Reason = "queue_limit"
	// ReasonTimeout means the wait timeout elapsed before a slot freed.
	ReasonTimeout Reason = "timeout"
	// ReasonAborted means the cancellation signal fired before a slot freed.
	ReasonAborted Reason = "aborted"
	// ReasonShutdown means the bulkhead has been closed.
	ReasonShutdown Reason = "shutdown"
)

type (
	// AdmissionError identifies errors produced by the admission layer
	// itself, as opposed to errors from the guarded function.
	//nolint:iface // exported for use in tests and consumer error
	// classification.
	AdmissionError interface {
		error
		// Reason returns the rejection reason.
		Reason() Reason
	}

	// admissionError is the concrete type backing all sentinel errors.
	admissionError Reason
)

// Sentinel admission errors, one per rejection reason.
var (
	// ErrConcurrencyLimit is returned when all slots are in use and the
	// request cannot or must not wait.
	ErrConcurrencyLimit error = admissionError(ReasonConcurrencyLimit)
	// ErrQueueLimit is returned when the bounded wait queue is full.
	ErrQueueLimit error = admissionError(ReasonQueueLimit)
	// ErrTimeout is returned when a wait timeout elapses before a slot frees.
	ErrTimeout error = admissionError(ReasonTimeout)
	// ErrAborted is returned when the cancellation signal fires while waiting.
	ErrAborted error = admissionError(ReasonAborted)
	// ErrShutdown is returned after Close, for both new and queued requests.
	ErrShutdown error = admissionError(ReasonShutdown)
)

func (e admissionError) Error() string { return "bulkhead: rejected: " + string(e) }

// Reason returns the rejection reason carried by the error.
func (e admissionError) Reason() Reason { return Reason(e) }

// ReasonOf extracts the rejection reason from err. It reports false for nil
// errors and for errors that did not originate from the admission layer,
// such as errors returned by a guarded function.
func ReasonOf(err error) (Reason, bool) {
	var ae AdmissionError
	if errors.As(err, &ae) {
		return ae.Reason(), true
	}

	return "", false
}
