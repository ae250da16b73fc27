// Package export writes invoices and validation reports to files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gyaneshwarpardhi/devicebill/internal/invoice"
)

// ErrUnsupportedFormat is returned for an output path with an unknown extension.
var ErrUnsupportedFormat = errors.New("export: unsupported output format")

// Format is an invoice file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// FormatFor picks the format from the extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".xlsx":
		return XLSX, nil
	case ".pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// WriteFile writes inv to path in the format matching its extension,
// creating parent directories as needed.
func WriteFile(path string, inv *invoice.Invoice) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	return createAndWrite(path, func(w io.Writer) error {
		return Write(w, format, inv)
	})
}

// Write encodes inv to w.
func Write(w io.Writer, format Format, inv *invoice.Invoice) error {
	switch format {
	case CSV:
		return writeCSV(w, inv)
	case JSON:
		return writeJSON(w, inv)
	case XLSX:
		return writeXLSX(w, inv)
	case PDF:
		return writePDF(w, inv)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func createAndWrite(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, inv *invoice.Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "preco"}); err != nil {
		return err
	}
	for _, l := range inv.Lines {
		if err := cw.Write([]string{l.DeviceID, l.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonLine struct {
	ID    string      `json:"id"`
	Preco json.Number `json:"preco"`
}

func writeJSON(w io.Writer, inv *invoice.Invoice) error {
	rows := make([]jsonLine, len(inv.Lines))
	for i, l := range inv.Lines {
		rows[i] = jsonLine{ID: l.DeviceID, Preco: json.Number(l.Amount.StringFixed(2))}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
