package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	DetailSheet  = "Detalle"
	SummarySheet = "Resumen"
)

var (
	detailHeader = []any{
		"Fecha", "Hora", "Paciente", "Código", "Procedimiento", "Cirujano", "Instrumentador",
		"Complejidad", "Valor", "Factor", "Importe", "Obra social",
	}
	summaryHeader = []any{"Instrumentador", "Cantidad", "Total"}
)

// WriteWorkbook writes the Detail and Summary exports as one xlsx workbook.
// Money cells are numeric so the sheet can be summed.
func WriteWorkbook(w io.Writer, detail []DetailRow, summary []SummaryLine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeRow(f, DetailSheet, 1, detailHeader); err != nil {
		return err
	}
	for i, d := range detail {
		row := []any{
			d.Date, d.Time, d.Patient, d.Code, d.Procedure, d.Surgeon, d.Staff, d.Complexity,
			d.UnitPrice.InexactFloat64(), d.Factor, d.Amount.InexactFloat64(), d.Payer,
		}
		if err := writeRow(f, DetailSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := styleColumns(f, DetailSheet, money, len(detail)+1, "I", "K"); err != nil {
		return err
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, s := range summary {
		if err := writeRow(f, SummarySheet, i+2, []any{s.Staff, s.Count, s.Total.InexactFloat64()}); err != nil {
			return err
		}
	}
	if err := styleColumns(f, SummarySheet, money, len(summary)+1, "C"); err != nil {
		return err
	}

	for _, sheet := range []string{DetailSheet, SummarySheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style header %s: %w", sheet, err)
		}
	}
	if n := len(summary); n > 0 {
		if err := f.SetRowStyle(SummarySheet, n+1, n+1, bold); err != nil {
			return fmt.Errorf("style total: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleColumns(f *excelize.File, sheet string, style, lastRow int, cols ...string) error {
	if lastRow < 2 {
		return nil
	}
	for _, col := range cols {
		if err := f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), style); err != nil {
			return fmt.Errorf("style %s!%s: %w", sheet, col, err)
		}
	}
	return nil
}
