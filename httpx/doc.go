// Package httpx provides an HTTP server adapter for the
// bulkhead library.
//
// Limit wraps a standard http.Handler with a bulkhead so that
// the number of concurrently served requests is bounded, with
// excess requests queued in FIFO order or rejected with
// 503 Service Unavailable.
package httpx
