package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var arPrinter = message.NewPrinter(language.MustParse("es-AR"))

// StaffReport is the per-staff liquidation document: a header block and the
// staff member's Detail rows.
type StaffReport struct {
	Staff       string          `json:"instrumentador"`
	License     string          `json:"matricula"`
	PeriodLabel string          `json:"periodo"`
	Sequence    int             `json:"numero_liquidacion"`
	Count       int             `json:"cantidad"`
	Total       decimal.Decimal `json:"total"`
	FileName    string          `json:"archivo"`
	Lines       []DetailRow     `json:"detalle"`
}

// PeriodLabel renders a period as "Agosto 2025".
func PeriodLabel(p model.Period) string {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Sprintf("%02d/%d", p.Month, p.Year)
	}
	return fmt.Sprintf("%s %d", monthNames[p.Month-1], p.Year)
}

// ReportFileName is Liquidacion_<name>_<Mes>_<year>.pdf with the name made
// filesystem-safe.
func ReportFileName(staff string, p model.Period) string {
	name := strings.ReplaceAll(normalize.CollapseSpaces(normalize.StripAccents(staff)), " ", "_")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, name)
	month := fmt.Sprintf("%02d", p.Month)
	if p.Month >= 1 && p.Month <= 12 {
		month = monthNames[p.Month-1]
	}
	return fmt.Sprintf("Liquidacion_%s_%s_%d.pdf", name, month, p.Year)
}

// StaffReports builds one report per summary row, in summary order. Licenses
// are keyed by staff name; a missing entry leaves the license blank.
func StaffReports(detail []DetailRow, summary []model.SummaryRow, p model.Period, licenses map[string]string, seq int) []StaffReport {
	byStaff := make(map[string][]DetailRow, len(summary))
	for _, d := range detail {
		byStaff[d.Staff] = append(byStaff[d.Staff], d)
	}

	label := PeriodLabel(p)
	out := make([]StaffReport, 0, len(summary))
	for _, s := range summary {
		out = append(out, StaffReport{
			Staff:       s.Staff,
			License:     licenses[s.Staff],
			PeriodLabel: label,
			Sequence:    seq,
			Count:       s.Count,
			Total:       s.Total,
			FileName:    ReportFileName(s.Staff, p),
			Lines:       byStaff[s.Staff],
		})
	}
	return out
}

// FormatARS renders an amount as Argentine pesos, e.g. "$ 39.000,00".
func FormatARS(d decimal.Decimal) string {
	return arPrinter.Sprintf("$ %.2f", d.Round(2).InexactFloat64())
}
