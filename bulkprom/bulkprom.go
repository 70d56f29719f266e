package bulkprom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/byte4ever/bulkhead"
)

const nameLabel = "bulkhead"

// Option configures a Collector.
type Option func(*settings)

type settings struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace sets the Prometheus namespace prefix for all metrics.
func WithNamespace(ns string) Option {
	return func(s *settings) { s.namespace = ns }
}

// WithConstLabels sets constant labels applied to all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(s *settings) {
		if labels == nil {
			s.constLabels = nil
			return
		}

		s.constLabels = make(prometheus.Labels, len(labels))
		for k, v := range labels {
			s.constLabels[k] = v
		}
	}
}

// Collector is a [prometheus.Collector] reading bulkhead counters at
// scrape time. One Collector can watch several bulkheads; every metric
// carries the bulkhead's name in the "bulkhead" label. Watching several
// through one Collector matters because a second Collector with the same
// descriptors would be refused by the registry.
type Collector struct {
	mu sync.Mutex
	bs []*bulkhead.Bulkhead

	inFlight         *prometheus.Desc
	pending          *prometheus.Desc
	concurrencyLimit *prometheus.Desc
	queueLimit       *prometheus.Desc
	closed           *prometheus.Desc
	aborted          *prometheus.Desc
	timedOut         *prometheus.Desc
	rejected         *prometheus.Desc
	doubleReleases   *prometheus.Desc
	underflows       *prometheus.Desc
}

// NewCollector creates a Collector for b. Register it with a Prometheus
// registry; it is not registered automatically.
func NewCollector(b *bulkhead.Bulkhead, opts ...Option) *Collector {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(s.namespace, "bulkhead", name),
			help,
			[]string{nameLabel},
			s.constLabels,
		)
	}

	return &Collector{
		bs: []*bulkhead.Bulkhead{b},
		inFlight: desc("in_flight",
			"Number of concurrency slots currently held."),
		pending: desc("pending",
			"Number of requests waiting for a slot."),
		concurrencyLimit: desc("concurrency_limit",
			"Maximum number of simultaneously held slots."),
		queueLimit: desc("queue_limit",
			"Maximum number of waiting requests."),
		closed: desc("closed",
			"Whether the bulkhead has been closed (0 or 1)."),
		aborted: desc("aborted_total",
			"Total waiters settled by cancellation."),
		timedOut: desc("timed_out_total",
			"Total waiters settled by wait timeout."),
		rejected: desc("rejected_total",
			"Total rejected admission requests."),
		doubleReleases: desc("double_releases_total",
			"Total redundant token releases (caller bug indicator)."),
		underflows: desc("underflows_total",
			"Total releases clamped at zero in-flight (caller bug indicator)."),
	}
}

// Add makes the Collector also scrape b. Safe to call after the Collector
// is registered.
func (c *Collector) Add(b *bulkhead.Bulkhead) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bs = append(c.bs, b)
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlight
	ch <- c.pending
	ch <- c.concurrencyLimit
	ch <- c.queueLimit
	ch <- c.closed
	ch <- c.aborted
	ch <- c.timedOut
	ch <- c.rejected
	ch <- c.doubleReleases
	ch <- c.underflows
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	bs := make([]*bulkhead.Bulkhead, len(c.bs))
	copy(bs, c.bs)
	c.mu.Unlock()

	for _, b := range bs {
		c.collectOne(ch, b)
	}
}

func (c *Collector) collectOne(ch chan<- prometheus.Metric, b *bulkhead.Bulkhead) {
	s := b.Stats()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, s.Name)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, s.Name)
	}

	gauge(c.inFlight, float64(s.InFlight))
	gauge(c.pending, float64(s.Pending))
	gauge(c.concurrencyLimit, float64(s.ConcurrencyLimit))
	gauge(c.queueLimit, float64(s.QueueLimit))

	closed := 0.0
	if s.Closed {
		closed = 1.0
	}

	gauge(c.closed, closed)

	counter(c.aborted, float64(s.Aborted))
	counter(c.timedOut, float64(s.TimedOut))
	counter(c.rejected, float64(s.Rejected))
	counter(c.doubleReleases, float64(s.DoubleReleases))
	counter(c.underflows, float64(s.Underflows))
}
