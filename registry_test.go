package bulkhead_test

import (
	"testing"

	"github.com/byte4ever/bulkhead"
)

// ---------------------------------------------------------------------------
// Named bulkheads auto-register
// ---------------------------------------------------------------------------

func TestNamedBulkheadAutoRegisters(t *testing.T) {
	reg := bulkhead.NewRegistry()

	mustNew(
		t,
		1,
		bulkhead.WithName("payments"),
		bulkhead.WithRegistry(reg),
	)

	status := reg.CheckReadiness()
	if !status.Ready {
		t.Fatalf("CheckReadiness() = %+v, want ready", status)
	}

	if len(status.Bulkheads) != 1 || status.Bulkheads[0].Name != "payments" {
		t.Fatalf("CheckReadiness() = %+v, want one entry named payments", status)
	}
}

// ---------------------------------------------------------------------------
// Anonymous bulkheads stay unregistered
// ---------------------------------------------------------------------------

func TestAnonymousBulkheadNotRegistered(t *testing.T) {
	reg := bulkhead.NewRegistry()

	mustNew(t, 1, bulkhead.WithRegistry(reg))

	if status := reg.CheckReadiness(); len(status.Bulkheads) != 0 {
		t.Fatalf("CheckReadiness() = %+v, want no entries", status)
	}
}

// ---------------------------------------------------------------------------
// A closed bulkhead flips readiness
// ---------------------------------------------------------------------------

func TestReadinessNotReadyAfterClose(t *testing.T) {
	reg := bulkhead.NewRegistry()

	b := mustNew(
		t,
		1,
		bulkhead.WithName("payments"),
		bulkhead.WithRegistry(reg),
	)

	healthy := mustNew(
		t,
		1,
		bulkhead.WithName("search"),
		bulkhead.WithRegistry(reg),
	)

	_ = healthy

	b.Close()

	status := reg.CheckReadiness()
	if status.Ready {
		t.Fatalf("CheckReadiness() = %+v, want not ready", status)
	}

	if len(status.Bulkheads) != 2 {
		t.Fatalf("CheckReadiness() = %+v, want two entries", status)
	}
}

// ---------------------------------------------------------------------------
// Saturation alone keeps the service ready
// ---------------------------------------------------------------------------

func TestReadinessStaysReadyWhenSaturated(t *testing.T) {
	reg := bulkhead.NewRegistry()

	b := mustNew(
		t,
		1,
		bulkhead.WithName("payments"),
		bulkhead.WithRegistry(reg),
	)

	token, err := b.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire() = %v, want nil", err)
	}

	defer token.Release()

	if status := reg.CheckReadiness(); !status.Ready {
		t.Fatalf("CheckReadiness() = %+v, want ready while merely saturated", status)
	}
}

// ---------------------------------------------------------------------------
// DefaultRegistry is a stable singleton
// ---------------------------------------------------------------------------

func TestDefaultRegistrySingleton(t *testing.T) {
	if bulkhead.DefaultRegistry() != bulkhead.DefaultRegistry() {
		t.Fatal("DefaultRegistry() returned different instances")
	}
}
