// Package bulkprom exposes bulkhead counters as Prometheus metrics.
//
// Collector implements prometheus.Collector over a bulkhead's Stats
// snapshot, so scraping never mutates admission state.
package bulkprom
