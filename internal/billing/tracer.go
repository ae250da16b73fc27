package billing

import "github.com/gyaneshwarpardhi/devicebill/internal/event"

// Tracer receives the transitions taken by the period builder. Builders never
// log on their own; callers inject a Tracer to observe them.
type Tracer interface {
	// Transition is called for every event that changed the timeline.
	Transition(deviceID string, ev event.Event, from, to State)
	// Ignored is called for an event that has no transition from state.
	Ignored(deviceID string, ev event.Event, state State)
	// Finalized is called when an open tail period is closed at the end of the cycle.
	Finalized(deviceID string, p Period)
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) Transition(string, event.Event, State, State) {}
func (NopTracer) Ignored(string, event.Event, State)           {}
func (NopTracer) Finalized(string, Period)                     {}
