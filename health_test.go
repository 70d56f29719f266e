package bulkhead_test

import (
	"testing"

	"github.com/byte4ever/bulkhead"
)

// ---------------------------------------------------------------------------
// Fresh bulkhead reports healthy
// ---------------------------------------------------------------------------

func TestHealthStatusHealthy(t *testing.T) {
	b := mustNew(
		t,
		2,
		bulkhead.WithName("db"),
		bulkhead.WithRegistry(bulkhead.NewRegistry()),
	)

	status := b.HealthStatus()
	if !status.Healthy || status.State != "healthy" {
		t.Fatalf("HealthStatus() = %+v, want healthy", status)
	}

	if status.Criticality != bulkhead.CriticalityNone {
		t.Fatalf("Criticality = %v, want none", status.Criticality)
	}

	if status.Name != "db" {
		t.Fatalf("Name = %q, want db", status.Name)
	}
}

// ---------------------------------------------------------------------------
// Saturation degrades without turning unhealthy
// ---------------------------------------------------------------------------

func TestHealthStatusSaturated(t *testing.T) {
	b := mustNew(t, 1)

	token, err := b.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire() = %v, want nil", err)
	}

	defer token.Release()

	// Slots full, queue limit 0: both bounds are exhausted.
	status := b.HealthStatus()
	if !status.Healthy {
		t.Fatalf("HealthStatus() = %+v; saturation must stay healthy", status)
	}

	if status.State != "saturated" || status.Criticality != bulkhead.CriticalityDegraded {
		t.Fatalf("HealthStatus() = %+v, want degraded/saturated", status)
	}
}

func TestHealthStatusNotSaturatedWithQueueSpace(t *testing.T) {
	b := mustNew(t, 1, bulkhead.WithQueueLimit(4))

	token, err := b.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire() = %v, want nil", err)
	}

	defer token.Release()

	// Slots full but the queue still has room: not saturated yet.
	if status := b.HealthStatus(); status.State != "healthy" {
		t.Fatalf("HealthStatus() = %+v, want healthy", status)
	}
}

// ---------------------------------------------------------------------------
// Closed is critical and unhealthy
// ---------------------------------------------------------------------------

func TestHealthStatusClosed(t *testing.T) {
	b := mustNew(t, 1)
	b.Close()

	status := b.HealthStatus()
	if status.Healthy {
		t.Fatalf("HealthStatus() = %+v, want unhealthy after Close", status)
	}

	if status.State != "closed" || status.Criticality != bulkhead.CriticalityCritical {
		t.Fatalf("HealthStatus() = %+v, want critical/closed", status)
	}
}

// ---------------------------------------------------------------------------
// Criticality strings
// ---------------------------------------------------------------------------

func TestCriticalityString(t *testing.T) {
	cases := map[bulkhead.Criticality]string{
		bulkhead.CriticalityNone:     "none",
		bulkhead.CriticalityDegraded: "degraded",
		bulkhead.CriticalityCritical: "critical",
	}

	for c, want := range cases {
		if got := c.String(); got != want {
			t.Fatalf("Criticality(%d).String() = %q, want %q", c, got, want)
		}
	}
}
