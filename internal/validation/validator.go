package validation

import (
	"sort"
	"time"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
)

// Checks is the outcome of every rule for a single event.
type Checks struct {
	EndAfterStart                bool `json:"end_after_start"`
	EndWithinCycle               bool `json:"end_within_cycle"`
	StartUnique                  bool `json:"start_unique"`
	EndImpliesPromotional        bool `json:"end_implies_promotional"`
	ZeroPriceImpliesPromotional  bool `json:"zero_price_implies_promotional"`
	NullPriceImpliesDeactivation bool `json:"null_price_implies_deactivation"`
	NoPromotionalOverlap         bool `json:"no_promotional_overlap"`
}

// Valid reports whether all seven rules hold.
func (c Checks) Valid() bool {
	return c.EndAfterStart &&
		c.EndWithinCycle &&
		c.StartUnique &&
		c.EndImpliesPromotional &&
		c.ZeroPriceImpliesPromotional &&
		c.NullPriceImpliesDeactivation &&
		c.NoPromotionalOverlap
}

// Get returns the outcome of a single rule.
func (c Checks) Get(r Rule) bool {
	switch r {
	case RuleEndAfterStart:
		return c.EndAfterStart
	case RuleEndWithinCycle:
		return c.EndWithinCycle
	case RuleStartUnique:
		return c.StartUnique
	case RuleEndImpliesPromotional:
		return c.EndImpliesPromotional
	case RuleZeroPriceImpliesPromotional:
		return c.ZeroPriceImpliesPromotional
	case RuleNullPriceImpliesDeactivation:
		return c.NullPriceImpliesDeactivation
	case RuleNoPromotionalOverlap:
		return c.NoPromotionalOverlap
	}
	return false
}

// Failed returns the rules that did not hold.
func (c Checks) Failed() []Rule {
	var out []Rule
	for _, r := range Rules {
		if !c.Get(r) {
			out = append(out, r)
		}
	}
	return out
}

// Validate applies every rule to events and returns one Checks per event,
// aligned with the input order. events is not modified.
func Validate(events []event.Event, month time.Month) []Checks {
	out := make([]Checks, len(events))
	for i, e := range events {
		out[i] = Checks{
			EndAfterStart:                EndAfterStart(e),
			EndWithinCycle:               EndWithinCycle(e, month),
			EndImpliesPromotional:        EndImpliesPromotional(e),
			ZeroPriceImpliesPromotional:  ZeroPriceImpliesPromotional(e),
			NullPriceImpliesDeactivation: NullPriceImpliesDeactivation(e),
		}
	}

	byStart := sortedIndex(events, func(a, b event.Event) bool {
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.Start.Before(b.Start)
	})
	eachAdjacent(events, byStart, func(i int, prev, next *event.Event) {
		out[i].StartUnique = StartUnique(events[i], prev, next)
	})

	byKind := sortedIndex(events, func(a, b event.Event) bool {
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Start.Before(b.Start)
	})
	eachAdjacent(events, byKind, func(i int, prev, next *event.Event) {
		out[i].NoPromotionalOverlap = NoPromotionalOverlap(events[i], prev, next)
	})

	return out
}

// sortedIndex returns the positions of events in stable less-order.
func sortedIndex(events []event.Event, less func(a, b event.Event) bool) []int {
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return less(events[idx[a]], events[idx[b]])
	})
	return idx
}

// eachAdjacent calls fn for every event with its neighbours in idx order.
func eachAdjacent(events []event.Event, idx []int, fn func(i int, prev, next *event.Event)) {
	for pos, i := range idx {
		var prev, next *event.Event
		if pos > 0 {
			prev = &events[idx[pos-1]]
		}
		if pos+1 < len(idx) {
			next = &events[idx[pos+1]]
		}
		fn(i, prev, next)
	}
}
