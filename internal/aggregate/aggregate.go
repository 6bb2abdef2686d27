// Package aggregate folds rated lines into per-staff summaries and totals.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// Summarize groups rated lines by exact staff name. Rows are ordered with
// Spanish collation, falling back to byte order for names that collate equal.
func Summarize(rated []model.RatedLine) []model.SummaryRow {
	byStaff := make(map[string]*model.SummaryRow)
	for _, r := range rated {
		row, ok := byStaff[r.Staff]
		if !ok {
			row = &model.SummaryRow{Staff: r.Staff, Total: decimal.Zero}
			byStaff[r.Staff] = row
		}
		row.Count++
		row.Total = row.Total.Add(r.Amount)
	}

	out := make([]model.SummaryRow, 0, len(byStaff))
	for _, row := range byStaff {
		out = append(out, *row)
	}
	SortByStaff(out)
	return out
}

// SortByStaff orders summary rows by staff name.
func SortByStaff(rows []model.SummaryRow) {
	c := collate.New(language.Spanish)
	sort.Slice(rows, func(i, j int) bool {
		if cmp := c.CompareString(rows[i].Staff, rows[j].Staff); cmp != 0 {
			return cmp < 0
		}
		return rows[i].Staff < rows[j].Staff
	})
}

// Totals computes batch figures. MissingCount is the number of distinct
// missing codes, not occurrences.
func Totals(rated []model.RatedLine, missing []model.MissingLine) model.Totals {
	total := decimal.Zero
	for _, r := range rated {
		total = total.Add(r.Amount)
	}
	return model.Totals{
		ProcedureCount: len(rated),
		TotalAmount:    total,
		MissingCount:   len(missing),
	}
}

// ForStaff returns the rated lines of one staff member in their original order.
func ForStaff(rated []model.RatedLine, staff string) []model.RatedLine {
	var out []model.RatedLine
	for _, r := range rated {
		if r.Staff == staff {
			out = append(out, r)
		}
	}
	return out
}
