// Package eventlog reads device lifecycle events from a delimited file.
package eventlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/devicebill/internal/event"
)

// DateLayout is the day-month-year format used by the log.
const DateLayout = "02-01-2006"

var (
	ErrMissingColumn = errors.New("eventlog: missing column")
	ErrUnknownKind   = errors.New("eventlog: unknown event kind")
	ErrNegativePrice = errors.New("eventlog: negative price")
)

type column int

const (
	colID column = iota
	colPrice
	colKind
	colStart
	colEnd
	numColumns
)

// headers maps every accepted header name to its column.
var headers = map[string]column{
	"id":           colID,
	"preço":        colPrice,
	"preco":        colPrice,
	"price":        colPrice,
	"evento":       colKind,
	"event":        colKind,
	"data_inicial": colStart,
	"start_date":   colStart,
	"data_final":   colEnd,
	"end_date":     colEnd,
}

var columnNames = [numColumns]string{"id", "preço", "evento", "data_inicial", "data_final"}

// Options tunes the reader.
type Options struct {
	Delimiter rune // defaults to ','
}

// ReadFile opens path and reads every event in it.
func ReadFile(path string, opts Options) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	defer f.Close()

	events, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read event log %s: %w", path, err)
	}
	return events, nil
}

// Read parses a header row followed by one event per row. Empty cells are
// nulls; prices are rounded to two decimal places.
func Read(r io.Reader, opts Options) ([]event.Event, error) {
	cr := csv.NewReader(r)
	cr.Comma = ','
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // a missing trailing data_final cell reads as null

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var events []event.Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev, err := parseRecord(rec, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev.Line = line
		events = append(events, ev)
	}
	return events, nil
}

func mapHeader(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := headers[name]; ok {
			index[c] = i
		}
	}
	var missing []string
	for c, i := range index {
		if i < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func parseRecord(rec []string, index [numColumns]int) (event.Event, error) {
	cell := func(c column) string {
		i := index[c]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var ev event.Event
	ev.DeviceID = cell(colID)

	if s := cell(colPrice); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return ev, fmt.Errorf("price %q: %w", s, err)
		}
		if p.IsNegative() {
			return ev, fmt.Errorf("price %q: %w", s, ErrNegativePrice)
		}
		ev.Price = decimal.NewNullDecimal(p.Round(2))
	}

	label := cell(colKind)
	kind, ok := event.ParseKind(label)
	if !ok {
		return ev, fmt.Errorf("%w: %q", ErrUnknownKind, label)
	}
	ev.Kind = kind

	start, err := ParseDate(cell(colStart))
	if err != nil {
		return ev, fmt.Errorf("data_inicial: %w", err)
	}
	ev.Start = start

	if s := cell(colEnd); s != "" {
		end, err := ParseDate(s)
		if err != nil {
			return ev, fmt.Errorf("data_final: %w", err)
		}
		ev.End = &end
	}
	return ev, nil
}

// ParseDate parses a dd-mm-yyyy calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
