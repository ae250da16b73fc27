package invoice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/devicebill/internal/billing"
	"github.com/gyaneshwarpardhi/devicebill/internal/event"
	"github.com/gyaneshwarpardhi/devicebill/internal/metrics"
	"github.com/gyaneshwarpardhi/devicebill/internal/validation"
)

// Line is the invoice row of one device.
type Line struct {
	DeviceID string           `json:"id"`
	Amount   decimal.Decimal  `json:"preco"` // rounded to 2 decimal places
	Periods  []billing.Period `json:"-"`
}

// Invoice is the outcome of a billing run.
type Invoice struct {
	RunID       string          `json:"run_id"`
	Cycle       billing.Cycle   `json:"-"`
	Lines       []Line          `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	EventsRead  int             `json:"events_read"`
	EventsValid int             `json:"events_valid"`
}

// Options configures an Assembler.
type Options struct {
	RunID   string
	Cycle   billing.Cycle
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Run
}

// Assembler turns validated events into an invoice, one device at a time.
type Assembler struct {
	opts Options
	log  *slog.Logger
	m    *metrics.Run
}

// New creates an Assembler. A nil logger or metrics set is replaced by a
// discarding logger or a fresh registry.
func New(opts Options) *Assembler {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewRun()
	}
	return &Assembler{opts: opts, log: log.With("run_id", opts.RunID), m: m}
}

type deviceJob struct {
	deviceID string
	events   []event.Event
}

// Run bills every device with at least one valid event. checks must be
// aligned with events, as returned by validation.Validate. Lines are sorted
// by device id whatever the worker count.
func (a *Assembler) Run(ctx context.Context, events []event.Event, checks []validation.Checks) (*Invoice, error) {
	if len(checks) != len(events) {
		return nil, fmt.Errorf("invoice: %d checks for %d events", len(checks), len(events))
	}
	a.recordChecks(events, checks)

	valid := lo.Filter(events, func(_ event.Event, i int) bool { return checks[i].Valid() })
	groups := lo.GroupBy(valid, func(e event.Event) string { return e.DeviceID })
	devices := lo.Keys(groups)
	sort.Strings(devices)

	a.log.Info("billing devices",
		"cycle", a.opts.Cycle.String(),
		"events", len(events),
		"valid", len(valid),
		"devices", len(devices),
	)

	pool := newWorkerPool[deviceJob, Line](ctx, a.opts.Workers, len(devices), len(devices), a.billDevice)
	for _, id := range devices {
		if !pool.Submit(ctx, deviceJob{deviceID: id, events: groups[id]}) {
			break
		}
	}
	pool.Drain()

	inv := &Invoice{
		RunID:       a.opts.RunID,
		Cycle:       a.opts.Cycle,
		Total:       decimal.Zero,
		EventsRead:  len(events),
		EventsValid: len(valid),
	}
	var firstErr error
	for res := range pool.Results() {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		inv.Lines = append(inv.Lines, res.value)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("invoice: run interrupted: %w", err)
	}

	sort.Slice(inv.Lines, func(i, j int) bool { return inv.Lines[i].DeviceID < inv.Lines[j].DeviceID })
	for _, l := range inv.Lines {
		inv.Total = inv.Total.Add(l.Amount)
	}
	a.m.DevicesBilled.Add(float64(len(inv.Lines)))
	a.m.InvoiceTotal.Set(inv.Total.InexactFloat64())
	return inv, nil
}

func (a *Assembler) billDevice(_ context.Context, job deviceJob) (Line, error) {
	start := time.Now()
	defer func() {
		a.m.DeviceDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	tracer := &logTracer{log: a.log, m: a.m}
	periods := billing.Build(job.deviceID, job.events, a.opts.Cycle, tracer)
	amount, err := billing.Prorate(periods)
	if err != nil {
		return Line{}, fmt.Errorf("device %s: %w", job.deviceID, err)
	}
	if len(periods) == 0 {
		a.log.Info("device has no billing periods, charging zero", "device", job.deviceID, "events", len(job.events))
	}
	for _, p := range periods {
		a.m.PeriodsBuilt.WithLabelValues(string(p.Kind)).Inc()
	}
	return Line{DeviceID: job.deviceID, Amount: amount.Round(2), Periods: periods}, nil
}

func (a *Assembler) recordChecks(events []event.Event, checks []validation.Checks) {
	a.m.EventsRead.Add(float64(len(events)))
	for i, c := range checks {
		if c.Valid() {
			continue
		}
		a.m.EventsRejected.Inc()
		failed := c.Failed()
		for _, r := range failed {
			a.m.RuleFailures.WithLabelValues(string(r)).Inc()
		}
		a.log.Debug("event rejected",
			"device", events[i].DeviceID,
			"line", events[i].Line,
			"kind", events[i].Kind.String(),
			"rules", failed,
		)
	}
}

// logTracer reports state machine activity to slog and the run metrics.
type logTracer struct {
	log *slog.Logger
	m   *metrics.Run
}

func (t *logTracer) Transition(deviceID string, ev event.Event, from, to billing.State) {
	t.log.Debug("transition",
		"device", deviceID,
		"kind", ev.Kind.String(),
		"date", ev.Start.Format(time.DateOnly),
		"from", from.String(),
		"to", to.String(),
	)
}

func (t *logTracer) Ignored(deviceID string, ev event.Event, state billing.State) {
	t.m.IgnoredTransitions.WithLabelValues(ev.Kind.String(), state.String()).Inc()
	t.log.Warn("event has no transition, ignored",
		"device", deviceID,
		"line", ev.Line,
		"kind", ev.Kind.String(),
		"date", ev.Start.Format(time.DateOnly),
		"state", state.String(),
	)
}

func (t *logTracer) Finalized(deviceID string, p billing.Period) {
	t.log.Debug("open period closed at cycle end",
		"device", deviceID,
		"kind", string(p.Kind),
		"start", p.Start.Format(time.DateOnly),
		"end", p.End.Format(time.DateOnly),
	)
}
