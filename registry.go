package bulkhead

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// ReadinessStatus — result of checking all registered bulkheads
// ---------------------------------------------------------------------------

type (
	// ReadinessStatus is the result of checking all registered bulkheads.
	ReadinessStatus struct {
		Bulkheads []Status `json:"bulkheads"`
		Ready     bool     `json:"ready"`
	}

	// Registry tracks HealthReporter instances and derives readiness
	// status. It also stores config-loaded bulkhead definitions and the
	// instances built from them.
	//
	// Pattern: Singleton — DefaultRegistry uses sync.OnceValue for safe
	// lazy init; explicit registries can be created for testing or
	// multi-tenant scenarios.
	Registry struct {
		reporters atomic.Pointer[[]HealthReporter]
		configs   map[string]Config
		instances map[string]*Bulkhead
		mu        sync.Mutex
	}
)

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		instances: make(map[string]*Bulkhead),
	}

	var empty []HealthReporter

	r.reporters.Store(&empty)

	return r
}

// Register adds a HealthReporter to the registry.
// This is typically called during startup by New.
// It is safe for concurrent use but intended for initialization only.
func (r *Registry) Register(hr HealthReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()
	// Create a new slice (copy-on-write) to avoid mutating the slice
	// that concurrent readers may be iterating.
	updated := make([]HealthReporter, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, hr)
	r.reporters.Store(&updated)
}

// unregister removes a previously registered reporter. Used when a build
// race in GetBulkhead leaves a redundant instance behind.
func (r *Registry) unregister(hr HealthReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()
	updated := make([]HealthReporter, 0, len(old))

	for _, existing := range old {
		if existing != hr {
			updated = append(updated, existing)
		}
	}

	r.reporters.Store(&updated)
}

// CheckReadiness iterates all registered reporters and builds a
// ReadinessStatus.
// Ready is false if any bulkhead has CriticalityCritical and is unhealthy.
func (r *Registry) CheckReadiness() ReadinessStatus {
	reporters := *r.reporters.Load()

	status := ReadinessStatus{
		Ready:     true,
		Bulkheads: make([]Status, 0, len(reporters)),
	}

	for _, hr := range reporters {
		s := hr.HealthStatus()
		status.Bulkheads = append(status.Bulkheads, s)

		// A critical unhealthy bulkhead makes the service not ready.
		if s.Criticality == CriticalityCritical && !s.Healthy {
			status.Ready = false
		}
	}

	return status
}

// DefaultRegistry returns the package-level global registry, creating it
// on first call.
//
// Pattern: Singleton — lazy initialization via sync.OnceValue ensures exactly
// one global registry exists and is safe for concurrent access.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
