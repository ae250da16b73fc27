package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodKind discriminates the pricing regime of a billing period.
type PeriodKind string

const (
	Regular         PeriodKind = "regular"
	Promotional     PeriodKind = "promotional"
	PostPromotional PeriodKind = "post_promotional"
)

// Period is an interval of constant pricing. End is nil while the period is
// the open tail of a device's timeline.
type Period struct {
	Kind  PeriodKind      `json:"kind"`
	Start time.Time       `json:"start"`
	End   *time.Time      `json:"end,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// Open reports whether the period has no end date yet.
func (p Period) Open() bool { return p.End == nil }

const secondsPerDay = 24 * 60 * 60

// Days returns the whole number of days covered by a closed period.
func (p Period) Days() int {
	if p.End == nil {
		return 0
	}
	// Unix seconds, not time.Duration, which saturates past ~292 years.
	return int((p.End.Unix() - p.Start.Unix()) / secondsPerDay)
}

// timeline is the ordered list of periods of one device. Only the last
// period can be amended.
type timeline struct {
	periods []Period
}

// current returns the last period, or nil if the timeline is empty.
func (t *timeline) current() *Period {
	if len(t.periods) == 0 {
		return nil
	}
	return &t.periods[len(t.periods)-1]
}

func (t *timeline) push(p Period) {
	t.periods = append(t.periods, p)
}

// close ends the current period at date.
func (t *timeline) close(date time.Time) {
	if cur := t.current(); cur != nil {
		d := date
		cur.End = &d
	}
}

// reprice rewrites the price of the current period in place.
func (t *timeline) reprice(price decimal.Decimal) {
	if cur := t.current(); cur != nil {
		cur.Price = price
	}
}

// collapse closes the current period at its own start.
func (t *timeline) collapse() {
	if cur := t.current(); cur != nil {
		t.close(cur.Start)
	}
}
