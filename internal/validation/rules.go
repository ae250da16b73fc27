package validation

import (
	"time"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
)

// Rule identifies one of the seven structural checks applied to an event.
type Rule string

const (
	RuleEndAfterStart                Rule = "end_after_start"
	RuleEndWithinCycle               Rule = "end_within_cycle"
	RuleStartUnique                  Rule = "start_unique"
	RuleEndImpliesPromotional        Rule = "end_implies_promotional"
	RuleZeroPriceImpliesPromotional  Rule = "zero_price_implies_promotional"
	RuleNullPriceImpliesDeactivation Rule = "null_price_implies_deactivation"
	RuleNoPromotionalOverlap         Rule = "no_promotional_overlap"
)

// Rules lists every check in report order.
var Rules = []Rule{
	RuleEndAfterStart,
	RuleEndWithinCycle,
	RuleStartUnique,
	RuleEndImpliesPromotional,
	RuleZeroPriceImpliesPromotional,
	RuleNullPriceImpliesDeactivation,
	RuleNoPromotionalOverlap,
}

// EndAfterStart holds when the event has no end date or ends after it starts.
func EndAfterStart(e event.Event) bool {
	if !e.HasEnd() {
		return true
	}
	return e.End.After(e.Start)
}

// EndWithinCycle holds when the end date, if any, falls in the processing month.
func EndWithinCycle(e event.Event, month time.Month) bool {
	if !e.HasEnd() {
		return true
	}
	return e.End.Month() == month
}

// StartUnique holds when e starts strictly after prev and strictly before next.
// prev and next are e's neighbours in (device, start) order; a neighbour from
// another device, or a nil one, does not constrain e.
func StartUnique(e event.Event, prev, next *event.Event) bool {
	if next != nil && next.DeviceID == e.DeviceID && !e.Start.Before(next.Start) {
		return false
	}
	if prev != nil && prev.DeviceID == e.DeviceID && !prev.Start.Before(e.Start) {
		return false
	}
	return true
}

// EndImpliesPromotional holds when only promotional events carry an end date.
func EndImpliesPromotional(e event.Event) bool {
	return !e.HasEnd() || e.Kind == event.PromotionalPeriod
}

// ZeroPriceImpliesPromotional holds when a zero price appears only on a promotion.
// A null price is not zero; NullPriceImpliesDeactivation covers it.
func ZeroPriceImpliesPromotional(e event.Event) bool {
	if e.Kind == event.PromotionalPeriod || !e.Price.Valid {
		return true
	}
	return !e.Price.Decimal.IsZero()
}

// NullPriceImpliesDeactivation holds when only deactivations omit the price.
func NullPriceImpliesDeactivation(e event.Event) bool {
	return e.Price.Valid || e.Kind == event.Deactivation
}

// NoPromotionalOverlap holds when a promotional event does not overlap the
// promotions adjacent to it in (device, kind, start) order. Neighbours of a
// different device or kind are ignored, as are non-promotional events.
func NoPromotionalOverlap(e event.Event, prev, next *event.Event) bool {
	if e.Kind != event.PromotionalPeriod {
		return true
	}
	if samePromotionGroup(e, prev) && prev.HasEnd() && e.Start.Before(*prev.End) {
		return false
	}
	if samePromotionGroup(e, next) && e.HasEnd() && next.Start.Before(*e.End) {
		return false
	}
	return true
}

func samePromotionGroup(e event.Event, other *event.Event) bool {
	return other != nil && other.DeviceID == e.DeviceID && other.Kind == event.PromotionalPeriod
}
