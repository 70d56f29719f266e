// Package bulkhead provides bounded admission control for concurrent work.
//
// The central type is Bulkhead, which grants a fixed number of concurrency
// slots and optionally parks excess requests in a bounded FIFO wait queue,
// failing fast otherwise. Named bulkheads automatically report health status
// for Kubernetes readiness probes.
package bulkhead
