package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/gyaneshwarpardhi/devicebill/internal/invoice"
)

const (
	invoiceSheet = "invoice"
	periodsSheet = "periods"
	summarySheet = "summary"
)

// writeXLSX renders the invoice lines, their billing periods and a summary.
func writeXLSX(w io.Writer, inv *invoice.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(periodsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	_ = f.SetCellValue(invoiceSheet, "A1", "id")
	_ = f.SetCellValue(invoiceSheet, "B1", "preco")
	for i, l := range inv.Lines {
		row := i + 2
		_ = f.SetCellValue(invoiceSheet, fmt.Sprintf("A%d", row), l.DeviceID)
		_ = f.SetCellValue(invoiceSheet, fmt.Sprintf("B%d", row), l.Amount.InexactFloat64())
	}

	for col, h := range []string{"id", "kind", "start", "end", "days", "price"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(periodsSheet, cell, h)
	}
	row := 2
	for _, l := range inv.Lines {
		for _, p := range l.Periods {
			end := ""
			if p.End != nil {
				end = p.End.Format(time.DateOnly)
			}
			values := []any{l.DeviceID, string(p.Kind), p.Start.Format(time.DateOnly), end, p.Days(), p.Price.InexactFloat64()}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				_ = f.SetCellValue(periodsSheet, cell, v)
			}
			row++
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Device Invoice")
	_ = f.SetCellValue(summarySheet, "A3", "Run")
	_ = f.SetCellValue(summarySheet, "B3", inv.RunID)
	_ = f.SetCellValue(summarySheet, "A4", "Cycle")
	_ = f.SetCellValue(summarySheet, "B4", inv.Cycle.String())
	_ = f.SetCellValue(summarySheet, "A5", "Closing date")
	_ = f.SetCellValue(summarySheet, "B5", inv.Cycle.Closing.Format(time.DateOnly))
	_ = f.SetCellValue(summarySheet, "A6", "Devices")
	_ = f.SetCellValue(summarySheet, "B6", len(inv.Lines))
	_ = f.SetCellValue(summarySheet, "A7", "Events read")
	_ = f.SetCellValue(summarySheet, "B7", inv.EventsRead)
	_ = f.SetCellValue(summarySheet, "A8", "Events valid")
	_ = f.SetCellValue(summarySheet, "B8", inv.EventsValid)
	_ = f.SetCellValue(summarySheet, "A9", "Total")
	_ = f.SetCellValue(summarySheet, "B9", inv.Total.InexactFloat64())

	return f.Write(w)
}

// writePDF renders a one-table invoice document.
func writePDF(w io.Writer, inv *invoice.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Device Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Cycle: %s (closing %s)", inv.Cycle.String(), inv.Cycle.Closing.Format(time.DateOnly)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", inv.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Events: %d read, %d valid", inv.EventsRead, inv.EventsValid))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %s", inv.Total.StringFixed(2)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Device", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Periods", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, l := range inv.Lines {
		pdf.CellFormat(60, 6, l.DeviceID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", len(l.Periods)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, l.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
