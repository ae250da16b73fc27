package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
	"github.com/gyaneshwarpardhi/devicebill/internal/eventlog"
	"github.com/gyaneshwarpardhi/devicebill/internal/validation"
)

// WriteValidationReportFile writes the validation report as CSV to path.
func WriteValidationReportFile(path string, events []event.Event, checks []validation.Checks) error {
	return createAndWrite(path, func(w io.Writer) error {
		return WriteValidationReport(w, events, checks)
	})
}

// WriteValidationReport lists every event with the outcome of each rule and
// the aggregate valid flag, in log order.
func WriteValidationReport(w io.Writer, events []event.Event, checks []validation.Checks) error {
	if len(events) != len(checks) {
		return fmt.Errorf("export: %d checks for %d events", len(checks), len(events))
	}
	cw := csv.NewWriter(w)

	header := []string{"line", "id", "preço", "evento", "data_inicial", "data_final"}
	for _, r := range validation.Rules {
		header = append(header, string(r))
	}
	header = append(header, "valid")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, e := range events {
		price, end := "", ""
		if e.Price.Valid {
			price = e.Price.Decimal.StringFixed(2)
		}
		if e.End != nil {
			end = e.End.Format(eventlog.DateLayout)
		}
		rec := []string{
			strconv.Itoa(e.Line),
			e.DeviceID,
			price,
			e.Kind.String(),
			e.Start.Format(eventlog.DateLayout),
			end,
		}
		for _, r := range validation.Rules {
			rec = append(rec, strconv.FormatBool(checks[i].Get(r)))
		}
		rec = append(rec, strconv.FormatBool(checks[i].Valid()))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
