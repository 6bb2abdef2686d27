package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// ReferenceRow is one line of a nomenclador import sheet.
type ReferenceRow struct {
	Entry    model.ReferenceEntry
	Price    decimal.Decimal
	HasPrice bool
}

// ReferenceRowsResult carries the parsed rows and the skipped-row count.
type ReferenceRowsResult struct {
	Rows    []ReferenceRow
	Skipped int
}

// ReferenceRows reads a nomenclador sheet. Columns are found by containment:
// "codigo", "procedimiento" or "descripcion", "complejidad", and "valor"
// (excluding "valor anterior"/"valor nuevo" style columns).
func ReferenceRows(sheet *model.Sheet) (*ReferenceRowsResult, error) {
	if sheet == nil || len(sheet.Header) == 0 {
		return nil, &model.InputFormatError{Reason: "no header row found"}
	}
	codeCol := findContaining(sheet.Header, []string{"codigo"}, nil)
	descCol := findContaining(sheet.Header, []string{"procedimiento", "descripcion"}, nil)
	complexCol := findContaining(sheet.Header, []string{"complejidad"}, nil)
	priceCol := findContaining(sheet.Header, []string{"valor"}, []string{"anterior", "nuevo"})

	if codeCol == "" || descCol == "" {
		return nil, &model.InputFormatError{
			Reason:  "nomenclador sheet needs a code column and a procedure/description column",
			Columns: sheet.Header,
		}
	}

	res := &ReferenceRowsResult{}
	for _, row := range sheet.Rows {
		code := CanonicalCode(row.Get(codeCol))
		desc := CollapseSpaces(row.Get(descCol))
		if code == "" || desc == "" {
			res.Skipped++
			continue
		}
		rr := ReferenceRow{Entry: model.ReferenceEntry{Code: code, Description: desc, Active: true}}
		if complexCol != "" {
			rr.Entry.Complexity = strings.TrimSpace(row.Get(complexCol))
		}
		if priceCol != "" {
			if v := row.Get(priceCol); v != "" {
				if p, err := ParseAmount(v); err == nil && p.IsPositive() {
					rr.Price = p
					rr.HasPrice = true
				}
			}
		}
		res.Rows = append(res.Rows, rr)
	}
	return res, nil
}

// findContaining returns the first header containing any of want and none of exclude.
func findContaining(header []string, want, exclude []string) string {
	for _, h := range header {
		key := HeaderKey(h)
		if containsAny(key, exclude) {
			continue
		}
		if containsAny(key, want) {
			return h
		}
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
