package sheet

import (
	"strings"

	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// Options controls sheet selection and header-row detection.
type Options struct {
	// SheetHints are substrings of preferred sheet names, tried in order.
	SheetHints []string
	// ScanRows is how many leading rows are searched for the header.
	ScanRows int
	// MinHits is how many cells must match Patterns for a row to be the header.
	MinHits int
	// Patterns are field-name fragments (date, code, procedure, patient, staff).
	Patterns []string
	// Literals mark a header row on their own.
	Literals []string
}

// VisitOptions is the detection setup for visit exports.
func VisitOptions() Options {
	return Options{
		SheetHints: []string{"sheet1", "hoja1", "datos"},
		ScanRows:   50,
		MinHits:    3,
		Patterns: []string{"fecha de visita", "fecha visita", "fecha", "codigo", "procedimiento",
			"paciente", "instrumentador"},
		Literals: []string{"fecha de visita", "fecha visita"},
	}
}

// ReferenceOptions is the detection setup for nomenclador imports.
func ReferenceOptions() Options {
	return Options{
		SheetHints: []string{"nomenclador"},
		ScanRows:   20,
		MinHits:    2,
		Patterns:   []string{"codigo", "procedimiento", "descripcion", "complejidad", "valor"},
	}
}

func (o Options) withDefaults() Options {
	if o.ScanRows <= 0 {
		o.ScanRows = 50
	}
	if o.MinHits <= 0 {
		o.MinHits = 3
	}
	return o
}

// DetectHeaderRow returns the index of the first row among the first ScanRows
// with at least MinHits cells matching Patterns, or any cell containing a
// Literal. Defaults to 0.
func DetectHeaderRow(rows [][]string, opts Options) int {
	opts = opts.withDefaults()
	limit := opts.ScanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		hits := 0
		for _, cell := range rows[i] {
			key := normalize.HeaderKey(cell)
			if key == "" {
				continue
			}
			for _, lit := range opts.Literals {
				if strings.Contains(key, normalize.HeaderKey(lit)) {
					return i
				}
			}
			for _, p := range opts.Patterns {
				if strings.Contains(key, normalize.HeaderKey(p)) {
					hits++
					break
				}
			}
		}
		if hits >= opts.MinHits {
			return i
		}
	}
	return 0
}
