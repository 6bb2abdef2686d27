package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NoComplexity is the price-table key for reference entries without a
// complexity class.
const NoComplexity = "SIN_COMPLEJIDAD"

// ComplexityKey maps a nullable complexity class onto its price-table key.
func ComplexityKey(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || c == NoComplexity {
		return NoComplexity
	}
	return c
}

// ComplexityDisplay is the inverse of ComplexityKey for exports.
func ComplexityDisplay(c string) string {
	if c == NoComplexity {
		return ""
	}
	return c
}

// RawVisitRow is one spreadsheet data row keyed by header name.
type RawVisitRow struct {
	Index int // 1-based row number in the source sheet
	Cells map[string]string
}

// Get returns the trimmed cell for header.
func (r RawVisitRow) Get(header string) string {
	return strings.TrimSpace(r.Cells[header])
}

// Sheet is a tabular read of one worksheet after header detection.
type Sheet struct {
	Name      string
	HeaderRow int // 0-based row the header was found on
	Header    []string
	Rows      []RawVisitRow
}

// ProcedureLine is one procedure occurrence extracted from a visit row.
type ProcedureLine struct {
	SourceRow   int    `json:"fila"`
	Position    int    `json:"posicion"`
	Date        Date   `json:"fecha"`
	DateRaw     string `json:"fecha_original,omitempty"`
	Time        *Clock `json:"-"`
	Patient     string `json:"paciente"`
	Code        string `json:"codigo"`
	Description string `json:"procedimiento"`
	Surgeon     string `json:"cirujano"`
	Staff       string `json:"instrumentador"`
	Payer       string `json:"obra_social,omitempty"`
}

// TimeString is "" when the line has no time.
func (l ProcedureLine) TimeString() string {
	if l.Time == nil {
		return ""
	}
	return l.Time.String()
}

// ReferenceEntry is a canonical nomenclador procedure.
type ReferenceEntry struct {
	Code        string `json:"codigo"`
	Description string `json:"descripcion"`
	Complexity  string `json:"complejidad,omitempty"`
	Active      bool   `json:"activo"`
}

// PriceEntry is the unit price of a complexity class in one period.
type PriceEntry struct {
	Complexity string          `json:"complejidad"`
	Period     Period          `json:"periodo"`
	UnitPrice  decimal.Decimal `json:"valor"`
}
