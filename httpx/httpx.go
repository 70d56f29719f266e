package httpx

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/byte4ever/bulkhead"
)

// OnRejectFunc is called when a request is rejected by the bulkhead. The
// rejection error carries the reason; recover it with [bulkhead.ReasonOf].
//
// Pattern: Strategy — caller injects rejection handling without modifying
// the adapter.
type OnRejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Option configures the middleware returned by [Limit].
type Option func(*limiter)

// WithWaitTimeout bounds how long a request may wait for a slot before
// being rejected. Without it, a queued request waits until its own context
// is cancelled or a slot frees.
func WithWaitTimeout(d time.Duration) Option {
	return func(l *limiter) { l.acquireOpts = append(l.acquireOpts, bulkhead.WithWaitTimeout(d)) }
}

// WithRetryAfter sets the Retry-After response header on rejected requests.
func WithRetryAfter(d time.Duration) Option {
	return func(l *limiter) { l.retryAfter = d }
}

// WithOnReject replaces the default rejection response.
func WithOnReject(fn OnRejectFunc) Option {
	return func(l *limiter) { l.onReject = fn }
}

// limiter guards an http.Handler with a bulkhead.
//
// Pattern: Adapter — bridges net/http and the bulkhead's admission contract
// by using the request context as the cancellation signal and translating
// rejections into HTTP status codes.
type limiter struct {
	b           *bulkhead.Bulkhead
	next        http.Handler
	acquireOpts []bulkhead.AcquireOption
	retryAfter  time.Duration
	onReject    OnRejectFunc
}

// Limit returns a middleware that serves each request inside b. When all
// slots are held and the queue is full (or waiting is disabled), the
// request is rejected immediately. A queued request whose client goes away
// settles as aborted without ever consuming a slot.
func Limit(b *bulkhead.Bulkhead, opts ...Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		l := &limiter{b: b, next: next}
		for _, opt := range opts {
			opt(l)
		}

		if l.onReject == nil {
			l.onReject = l.defaultOnReject
		}

		return l
	}
}

func (l *limiter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := l.b.Run(r.Context(), func(_ context.Context) error {
		l.next.ServeHTTP(w, r)
		return nil
	}, l.acquireOpts...)
	if err == nil {
		return
	}

	if _, rejected := bulkhead.ReasonOf(err); rejected {
		l.onReject(w, r, err)
	}
}

// defaultOnReject answers 503 Service Unavailable, with a Retry-After
// header when configured. An aborted rejection means the client is already
// gone, so no response is written for it.
func (l *limiter) defaultOnReject(w http.ResponseWriter, r *http.Request, err error) {
	reason, _ := bulkhead.ReasonOf(err)
	if reason == bulkhead.ReasonAborted {
		return
	}

	if l.retryAfter > 0 {
		w.Header().Set(
			"Retry-After",
			strconv.Itoa(int(math.Ceil(l.retryAfter.Seconds()))),
		)
	}

	http.Error(
		w,
		"too many in-flight requests",
		http.StatusServiceUnavailable,
	)
}
