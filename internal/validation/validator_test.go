package validation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
	"github.com/gyaneshwarpardhi/devicebill/internal/validation"
)

func day(month time.Month, d int) time.Time { return event.Date(2021, month, d) }

func price(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func promo(id string, p int64, start, end time.Time) event.Event {
	return event.Event{DeviceID: id, Kind: event.PromotionalPeriod, Price: price(p), Start: start, End: &end}
}

// onlyFails asserts that exactly rule r failed for the event at index i.
func onlyFails(t *testing.T, checks []validation.Checks, i int, r validation.Rule) {
	t.Helper()
	c := checks[i]
	assert.False(t, c.Valid(), "event %d should be invalid", i)
	assert.Equal(t, []validation.Rule{r}, c.Failed(), "event %d", i)
}

func TestValidate_EachRuleIndependently(t *testing.T) {
	cases := []struct {
		name   string
		events []event.Event
		rule   validation.Rule
	}{
		{
			name:   "end before start",
			events: []event.Event{promo("a", 50, day(time.January, 20), day(time.January, 10))},
			rule:   validation.RuleEndAfterStart,
		},
		{
			name:   "end outside cycle",
			events: []event.Event{promo("a", 50, day(time.January, 20), day(time.February, 10))},
			rule:   validation.RuleEndWithinCycle,
		},
		{
			name: "duplicate start",
			events: []event.Event{
				{DeviceID: "a", Kind: event.Activation, Price: price(100), Start: day(time.January, 5)},
				{DeviceID: "a", Kind: event.PriceChange, Price: price(90), Start: day(time.January, 5)},
			},
			rule: validation.RuleStartUnique,
		},
		{
			name: "end on non promotional",
			events: []event.Event{func() event.Event {
				end := day(time.January, 9)
				return event.Event{DeviceID: "a", Kind: event.PriceChange, Price: price(100), Start: day(time.January, 5), End: &end}
			}()},
			rule: validation.RuleEndImpliesPromotional,
		},
		{
			name:   "zero price on activation",
			events: []event.Event{{DeviceID: "a", Kind: event.Activation, Price: price(0), Start: day(time.January, 5)}},
			rule:   validation.RuleZeroPriceImpliesPromotional,
		},
		{
			name:   "null price on price change",
			events: []event.Event{{DeviceID: "a", Kind: event.PriceChange, Start: day(time.January, 5)}},
			rule:   validation.RuleNullPriceImpliesDeactivation,
		},
		{
			name: "overlapping promotions",
			events: []event.Event{
				promo("a", 50, day(time.January, 1), day(time.January, 15)),
				promo("a", 40, day(time.January, 10), day(time.January, 20)),
			},
			rule: validation.RuleNoPromotionalOverlap,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checks := validation.Validate(tc.events, time.January)
			require.Len(t, checks, len(tc.events))
			for i := range tc.events {
				onlyFails(t, checks, i, tc.rule)
			}
		})
	}
}

func TestValidate_ValidLog(t *testing.T) {
	events := []event.Event{
		{DeviceID: "a", Kind: event.Activation, Price: price(100), Start: day(time.January, 1)},
		promo("a", 0, day(time.January, 11), day(time.January, 21)),
		{DeviceID: "a", Kind: event.Deactivation, Start: day(time.January, 25)},
		{DeviceID: "b", Kind: event.Activation, Price: price(100), Start: day(time.January, 1)},
	}
	for i, c := range validation.Validate(events, time.January) {
		assert.True(t, c.Valid(), "event %d failed %v", i, c.Failed())
	}
}

func TestValidate_SameStartOnDifferentDevices(t *testing.T) {
	events := []event.Event{
		{DeviceID: "a", Kind: event.Activation, Price: price(100), Start: day(time.January, 1)},
		{DeviceID: "b", Kind: event.Activation, Price: price(100), Start: day(time.January, 1)},
	}
	for _, c := range validation.Validate(events, time.January) {
		assert.True(t, c.StartUnique)
	}
}

func TestValidate_DisjointPromotions(t *testing.T) {
	events := []event.Event{
		{DeviceID: "a", Kind: event.Activation, Price: price(100), Start: day(time.January, 1)},
		promo("a", 50, day(time.January, 15), day(time.January, 20)),
		promo("a", 50, day(time.January, 5), day(time.January, 10)),
		promo("a", 40, day(time.January, 20), day(time.January, 25)),
		promo("b", 40, day(time.January, 6), day(time.January, 25)),
	}
	for i, c := range validation.Validate(events, time.January) {
		assert.True(t, c.NoPromotionalOverlap, "event %d", i)
	}
}

func TestValidate_OnlyOverlappingPairIsFlagged(t *testing.T) {
	events := []event.Event{
		promo("a", 50, day(time.January, 1), day(time.January, 5)),
		promo("a", 50, day(time.January, 10), day(time.January, 20)),
		promo("a", 40, day(time.January, 15), day(time.January, 25)),
	}
	checks := validation.Validate(events, time.January)
	assert.True(t, checks[0].NoPromotionalOverlap)
	assert.False(t, checks[1].NoPromotionalOverlap)
	assert.False(t, checks[2].NoPromotionalOverlap)
}

func TestValidate_CustomProcessingMonth(t *testing.T) {
	events := []event.Event{promo("a", 50, day(time.March, 2), day(time.March, 9))}
	assert.False(t, validation.Validate(events, time.January)[0].EndWithinCycle)
	assert.True(t, validation.Validate(events, time.March)[0].EndWithinCycle)
}

func TestValidate_Idempotent(t *testing.T) {
	events := []event.Event{
		{DeviceID: "b", Kind: event.PriceChange, Start: day(time.January, 3)},
		{DeviceID: "a", Kind: event.Activation, Price: price(100), Start: day(time.January, 5)},
		{DeviceID: "a", Kind: event.PriceChange, Price: price(90), Start: day(time.January, 5)},
		promo("a", 50, day(time.January, 6), day(time.February, 10)),
	}
	snapshot := make([]event.Event, len(events))
	copy(snapshot, events)

	first := validation.Validate(events, time.January)
	second := validation.Validate(events, time.January)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, events, "input must not be modified")
}

func TestValidate_Empty(t *testing.T) {
	assert.Empty(t, validation.Validate(nil, time.January))
}
