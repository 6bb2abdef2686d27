// Package export shapes rated lines into the Detail, Summary and per-staff
// report artifacts.
package export

import (
	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

const TotalLabel = "TOTAL"

var hundred = decimal.NewFromInt(100)

// DetailRow is one line of the Detail export.
type DetailRow struct {
	Date       string          `json:"fecha"`
	Time       string          `json:"hora"`
	Patient    string          `json:"paciente"`
	Code       string          `json:"codigo"`
	Procedure  string          `json:"procedimiento"`
	Surgeon    string          `json:"cirujano"`
	Staff      string          `json:"instrumentador"`
	Complexity string          `json:"complejidad"`
	UnitPrice  decimal.Decimal `json:"valor"`
	Factor     string          `json:"factor"`
	Amount     decimal.Decimal `json:"importe"`
	Payer      string          `json:"obra_social"`
}

// SummaryLine is one line of the Summary export. The last one is TOTAL.
type SummaryLine struct {
	Staff string          `json:"instrumentador"`
	Count int             `json:"cantidad"`
	Total decimal.Decimal `json:"total"`
}

// Detail renders rated lines in input order. The procedure text is the one
// from the visit sheet, falling back to the nomenclador description.
func Detail(rated []model.RatedLine) []DetailRow {
	out := make([]DetailRow, len(rated))
	for i, r := range rated {
		date := r.DateRaw
		if !r.Date.IsZero() {
			date = r.Date.String()
		}
		code, desc := r.ResolvedCode, r.ResolvedDescription
		if code == "" {
			code = r.Code
		}
		if desc == "" {
			desc = r.Description
		}
		out[i] = DetailRow{
			Date:       date,
			Time:       r.TimeString(),
			Patient:    r.Patient,
			Code:       code,
			Procedure:  desc,
			Surgeon:    r.Surgeon,
			Staff:      r.Staff,
			Complexity: model.ComplexityDisplay(r.Complexity),
			UnitPrice:  r.UnitPrice,
			Factor:     FactorPercent(r.Factor),
			Amount:     r.Amount,
			Payer:      r.Payer,
		}
	}
	return out
}

// FactorPercent renders 1.2 as "120%" and 0.5 as "50%".
func FactorPercent(f decimal.Decimal) string {
	return f.Mul(hundred).String() + "%"
}

// Summary appends the TOTAL row to the per-staff rows.
func Summary(rows []model.SummaryRow, totals model.Totals) []SummaryLine {
	out := make([]SummaryLine, 0, len(rows)+1)
	for _, r := range rows {
		out = append(out, SummaryLine{Staff: r.Staff, Count: r.Count, Total: r.Total})
	}
	return append(out, SummaryLine{
		Staff: TotalLabel,
		Count: totals.ProcedureCount,
		Total: totals.TotalAmount,
	})
}
