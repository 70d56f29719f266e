package bulkhead

// ---------------------------------------------------------------------------
// HealthReporter interface
// ---------------------------------------------------------------------------

type (
	// HealthReporter is implemented by Bulkhead. The interface exists so
	// that other components can report readiness through the same registry
	// without depending on the concrete type.
	HealthReporter interface {
		// Name returns the reporter's name.
		Name() string
		// HealthStatus returns the current health state.
		HealthStatus() Status
	}

	// Criticality represents how an unhealthy state affects readiness.
	Criticality int

	// Status represents the current health state of a bulkhead.
	Status struct {
		Name        string      `json:"name"`
		State       string      `json:"state"`
		Criticality Criticality `json:"criticality"`
		Healthy     bool        `json:"healthy"`
	}
)

const (
	// CriticalityNone means the bulkhead is operating normally.
	CriticalityNone Criticality = iota
	// CriticalityDegraded means the service can still serve but is impaired.
	CriticalityDegraded
	// CriticalityCritical means the service cannot reliably serve requests.
	CriticalityCritical
)

// String returns the criticality level as a human-readable string.
func (c Criticality) String() string {
	switch c {
	case CriticalityDegraded:
		return "degraded"
	case CriticalityCritical:
		return "critical"
	default:
		return "none"
	}
}

// ---------------------------------------------------------------------------
// HealthStatus on Bulkhead
// ---------------------------------------------------------------------------

// HealthStatus derives the bulkhead's current health from its counters.
//
// A closed bulkhead is unhealthy and critical: it rejects everything and
// never reopens. A saturated bulkhead (all slots held and the wait queue
// full) stays healthy but reports degraded — shedding load is what it is
// for, not an outage.
func (b *Bulkhead) HealthStatus() Status {
	s := b.Stats()

	status := Status{
		Name:    b.name,
		Healthy: true,
		State:   "healthy",
	}

	if s.Closed {
		status.Healthy = false
		status.Criticality = CriticalityCritical
		status.State = "closed"

		return status
	}

	if s.InFlight >= s.ConcurrencyLimit && s.Pending >= s.QueueLimit {
		status.Criticality = CriticalityDegraded
		status.State = "saturated"
	}

	return status
}
