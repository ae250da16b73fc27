package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds the metrics of one billing run on its own registry, so repeated
// runs (watch mode, tests) never collide on registration.
type Run struct {
	Registry *prometheus.Registry

	EventsRead         prometheus.Counter
	EventsRejected     prometheus.Counter
	RuleFailures       *prometheus.CounterVec
	IgnoredTransitions *prometheus.CounterVec
	DevicesBilled      prometheus.Counter
	PeriodsBuilt       *prometheus.CounterVec
	InvoiceTotal       prometheus.Gauge
	DeviceDuration     prometheus.Histogram
	RunDuration        prometheus.Gauge
}

// NewRun registers a fresh set of run metrics.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		Registry: reg,

		EventsRead: f.NewCounter(prometheus.CounterOpts{
			Name: "devicebill_events_read_total",
			Help: "Total number of events read from the event log.",
		}),

		EventsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "devicebill_events_rejected_total",
			Help: "Total number of events excluded by validation.",
		}),

		RuleFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devicebill_rule_failures_total",
			Help: "Total number of validation rule failures, labelled by rule.",
		}, []string{"rule"}),

		IgnoredTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devicebill_ignored_transitions_total",
			Help: "Valid events with no state machine transition, labelled by kind and state.",
		}, []string{"kind", "state"}),

		DevicesBilled: f.NewCounter(prometheus.CounterOpts{
			Name: "devicebill_devices_billed_total",
			Help: "Total number of devices with an invoice line.",
		}),

		PeriodsBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devicebill_periods_built_total",
			Help: "Total number of billing periods built, labelled by kind.",
		}, []string{"kind"}),

		InvoiceTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "devicebill_invoice_total",
			Help: "Sum of all rounded invoice amounts of the run.",
		}),

		DeviceDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "devicebill_device_duration_ms",
			Help:    "Per-device period building and proration latency in milliseconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		}),

		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "devicebill_run_duration_seconds",
			Help: "Wall time of the last billing run.",
		}),
	}
}

// Push sends the run's metrics to a Prometheus Pushgateway, grouped by run id.
func (r *Run) Push(ctx context.Context, url, job, runID string) error {
	err := push.New(url, job).
		Gatherer(r.Registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
