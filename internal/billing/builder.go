package billing

import (
	"sort"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
)

// State is the activation state of a device while its events are folded.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Builder folds the valid events of one device into billing periods.
type Builder struct {
	deviceID string
	cycle    Cycle
	tracer   Tracer
	state    State
	timeline timeline
}

// NewBuilder returns a Builder for deviceID. A nil tracer is replaced by NopTracer.
func NewBuilder(deviceID string, cycle Cycle, tracer Tracer) *Builder {
	if tracer == nil {
		tracer = NopTracer{}
	}
	return &Builder{deviceID: deviceID, cycle: cycle, tracer: tracer}
}

// State returns the current activation state.
func (b *Builder) State() State { return b.state }

// Apply advances the state machine by one event. Events must arrive in
// start-date order. Pairs with no transition (an Activation while Active, a
// Deactivation while Inactive, anything but an Activation while Inactive, a
// promotion without an end date) leave the timeline untouched and are reported
// to the tracer.
func (b *Builder) Apply(ev event.Event) {
	from := b.state
	switch {
	case b.state == Inactive && ev.Kind == event.Activation:
		b.timeline.push(Period{Kind: Regular, Start: ev.Start, Price: ev.Price.Decimal})
		b.state = Active

	case b.state == Active && ev.Kind == event.PromotionalPeriod && ev.HasEnd():
		resume := b.timeline.current().Price
		end := *ev.End
		b.timeline.close(ev.Start)
		b.timeline.push(Period{Kind: Promotional, Start: ev.Start, End: &end, Price: ev.Price.Decimal})
		b.timeline.push(Period{Kind: PostPromotional, Start: end, Price: resume})

	case b.state == Active && (ev.Kind == event.Activation || ev.Kind == event.PriceChange):
		if b.timeline.current().Kind == PostPromotional {
			b.timeline.reprice(ev.Price.Decimal)
			break
		}
		b.timeline.close(ev.Start)
		b.timeline.push(Period{Kind: Regular, Start: ev.Start, Price: ev.Price.Decimal})

	case b.state == Active && ev.Kind == event.Deactivation:
		if b.timeline.current().Kind == PostPromotional {
			b.timeline.collapse()
		} else {
			b.timeline.close(ev.Start)
		}
		b.state = Inactive

	default:
		b.tracer.Ignored(b.deviceID, ev, b.state)
		return
	}
	b.tracer.Transition(b.deviceID, ev, from, b.state)
}

// Finish closes an open tail period at the cycle's closing date and returns
// the timeline. A tail opened after the closing date is closed at its own
// start so it carries no charge for this cycle.
func (b *Builder) Finish() []Period {
	cur := b.timeline.current()
	if cur == nil || !cur.Open() {
		return b.timeline.periods
	}
	if cur.Start.After(b.cycle.Closing) {
		b.timeline.collapse()
	} else {
		b.timeline.close(b.cycle.Closing)
	}
	b.tracer.Finalized(b.deviceID, *cur)
	return b.timeline.periods
}

// Build runs a fresh Builder over events and returns the closed periods.
// events are processed in start-date order; the slice itself is not reordered.
func Build(deviceID string, events []event.Event, cycle Cycle, tracer Tracer) []Period {
	ordered := make([]event.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	b := NewBuilder(deviceID, cycle, tracer)
	for _, ev := range ordered {
		b.Apply(ev)
	}
	return b.Finish()
}
