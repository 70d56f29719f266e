package bulkprom_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/bulkhead"
	"github.com/byte4ever/bulkhead/bulkprom"
)

func newBulkhead(t *testing.T, limit int, opts ...bulkhead.Option) *bulkhead.Bulkhead {
	t.Helper()

	b, err := bulkhead.New(limit, opts...)
	require.NoError(t, err)

	t.Cleanup(b.Close)

	return b
}

func TestCollectorRegisters(t *testing.T) {
	t.Parallel()

	b := newBulkhead(t, 2, bulkhead.WithName("db"))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(bulkprom.NewCollector(b)))

	require.Equal(t, 10, testutil.CollectAndCount(bulkprom.NewCollector(b)))
}

func TestCollectorReportsLimitsAndOccupancy(t *testing.T) {
	t.Parallel()

	b := newBulkhead(t, 2, bulkhead.WithName("db"), bulkhead.WithQueueLimit(4))

	token, err := b.TryAcquire()
	require.NoError(t, err)

	defer token.Release()

	expected := `
		# HELP bulkhead_concurrency_limit Maximum number of simultaneously held slots.
		# TYPE bulkhead_concurrency_limit gauge
		bulkhead_concurrency_limit{bulkhead="db"} 2
		# HELP bulkhead_in_flight Number of concurrency slots currently held.
		# TYPE bulkhead_in_flight gauge
		bulkhead_in_flight{bulkhead="db"} 1
		# HELP bulkhead_pending Number of requests waiting for a slot.
		# TYPE bulkhead_pending gauge
		bulkhead_pending{bulkhead="db"} 0
		# HELP bulkhead_queue_limit Maximum number of waiting requests.
		# TYPE bulkhead_queue_limit gauge
		bulkhead_queue_limit{bulkhead="db"} 4
	`

	require.NoError(t, testutil.CollectAndCompare(
		bulkprom.NewCollector(b),
		strings.NewReader(expected),
		"bulkhead_concurrency_limit",
		"bulkhead_in_flight",
		"bulkhead_pending",
		"bulkhead_queue_limit",
	))
}

func TestCollectorCountsRejections(t *testing.T) {
	t.Parallel()

	b := newBulkhead(t, 1, bulkhead.WithName("db"))

	token, err := b.TryAcquire()
	require.NoError(t, err)

	defer token.Release()

	for i := 0; i < 3; i++ {
		_, tryErr := b.TryAcquire()
		require.Error(t, tryErr)
	}

	expected := `
		# HELP bulkhead_rejected_total Total rejected admission requests.
		# TYPE bulkhead_rejected_total counter
		bulkhead_rejected_total{bulkhead="db"} 3
	`

	require.NoError(t, testutil.CollectAndCompare(
		bulkprom.NewCollector(b),
		strings.NewReader(expected),
		"bulkhead_rejected_total",
	))
}

func TestCollectorClosedFlag(t *testing.T) {
	t.Parallel()

	b, err := bulkhead.New(1, bulkhead.WithName("db"))
	require.NoError(t, err)

	b.Close()

	expected := `
		# HELP bulkhead_closed Whether the bulkhead has been closed (0 or 1).
		# TYPE bulkhead_closed gauge
		bulkhead_closed{bulkhead="db"} 1
	`

	require.NoError(t, testutil.CollectAndCompare(
		bulkprom.NewCollector(b),
		strings.NewReader(expected),
		"bulkhead_closed",
	))
}

func TestCollectorNamespaceAndConstLabels(t *testing.T) {
	t.Parallel()

	b := newBulkhead(t, 1, bulkhead.WithName("db"))

	c := bulkprom.NewCollector(
		b,
		bulkprom.WithNamespace("myapp"),
		bulkprom.WithConstLabels(prometheus.Labels{"service": "api"}),
	)

	expected := `
		# HELP myapp_bulkhead_in_flight Number of concurrency slots currently held.
		# TYPE myapp_bulkhead_in_flight gauge
		myapp_bulkhead_in_flight{bulkhead="db",service="api"} 0
	`

	require.NoError(t, testutil.CollectAndCompare(
		c,
		strings.NewReader(expected),
		"myapp_bulkhead_in_flight",
	))
}

func TestCollectorWatchesSeveralBulkheads(t *testing.T) {
	t.Parallel()

	db := newBulkhead(t, 1, bulkhead.WithName("db"))
	mail := newBulkhead(t, 3, bulkhead.WithName("mail"))

	c := bulkprom.NewCollector(db)
	c.Add(mail)

	expected := `
		# HELP bulkhead_concurrency_limit Maximum number of simultaneously held slots.
		# TYPE bulkhead_concurrency_limit gauge
		bulkhead_concurrency_limit{bulkhead="db"} 1
		bulkhead_concurrency_limit{bulkhead="mail"} 3
	`

	require.NoError(t, testutil.CollectAndCompare(
		c,
		strings.NewReader(expected),
		"bulkhead_concurrency_limit",
	))

	// A second Collector for the same descriptors must be refused; the
	// registry sees duplicate metrics. Watching both through one Collector
	// is the supported shape.
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	require.Error(t, reg.Register(bulkprom.NewCollector(mail)))
}
