package billing

import (
	"fmt"
	"time"
)

// NominalMonthDays normalizes every charge to a 30-day month,
// independent of the processing month's real length.
const NominalMonthDays = 30

// Cycle is the processing month of a billing run.
type Cycle struct {
	Month   time.Month
	Closing time.Time // last calendar day of Month
}

// NewCycle returns the cycle for month of year, closing on its last day.
func NewCycle(year int, month time.Month) (Cycle, error) {
	if month < time.January || month > time.December {
		return Cycle{}, fmt.Errorf("cycle: invalid month %d", month)
	}
	// Day 0 of the next month normalizes to the last day of this one.
	closing := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return Cycle{Month: month, Closing: closing}, nil
}

// CycleClosingOn builds a cycle from an explicit terminal date.
func CycleClosingOn(closing time.Time) Cycle {
	d := time.Date(closing.Year(), closing.Month(), closing.Day(), 0, 0, 0, 0, time.UTC)
	return Cycle{Month: d.Month(), Closing: d}
}

func (c Cycle) String() string {
	return c.Closing.Format("2006-01")
}
