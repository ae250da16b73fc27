package event

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the lifecycle event type of a device.
type Kind int

const (
	Activation Kind = iota
	PromotionalPeriod
	PriceChange
	Deactivation
)

var kindNames = map[Kind]string{
	Activation:        "Activation",
	PromotionalPeriod: "PromotionalPeriod",
	PriceChange:       "PriceChange",
	Deactivation:      "Deactivation",
}

// labels maps every accepted log label to its Kind.
var labels = map[string]Kind{
	"Ativação":            Activation,
	"Ativacao":            Activation,
	"Activation":          Activation,
	"Período Promocional": PromotionalPeriod,
	"Periodo Promocional": PromotionalPeriod,
	"PromotionalPeriod":   PromotionalPeriod,
	"Mudança de Preço":    PriceChange,
	"Mudanca de Preco":    PriceChange,
	"PriceChange":         PriceChange,
	"Desativação":         Deactivation,
	"Desativacao":         Deactivation,
	"Deactivation":        Deactivation,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a log label into a Kind.
func ParseKind(label string) (Kind, bool) {
	k, ok := labels[label]
	return k, ok
}

// Event is one row of the device lifecycle log.
type Event struct {
	DeviceID string              `json:"id"`
	Price    decimal.NullDecimal `json:"price"`
	Kind     Kind                `json:"kind"`
	Start    time.Time           `json:"start_date"`
	End      *time.Time          `json:"end_date,omitempty"` // PromotionalPeriod only
	Line     int                 `json:"-"`                  // 1-based source line
}

// HasEnd reports whether the event carries an end date.
func (e Event) HasEnd() bool { return e.End != nil }

// Date returns the calendar date as UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
