package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/sheet"
)

// SequenceRef anchors liquidation numbering: Month/Year maps to Number.
type SequenceRef struct {
	Month  int `yaml:"month"`
	Year   int `yaml:"year"`
	Number int `yaml:"number"`
}

// HeaderRules mirrors sheet.Options for the visit export.
type HeaderRules struct {
	ScanRows int      `yaml:"scan_rows"`
	MinHits  int      `yaml:"min_hits"`
	Patterns []string `yaml:"patterns"`
	Literals []string `yaml:"literals"`
}

// Rules are the business rules that vary between hospitals and payers.
type Rules struct {
	Columns           map[string][]string `yaml:"columns"`
	ProcedureKeywords []string            `yaml:"procedure_keywords"`
	NoStaff           string              `yaml:"no_staff"`
	SheetHints        []string            `yaml:"sheet_hints"`
	Header            HeaderRules         `yaml:"header"`
	Sequence          SequenceRef         `yaml:"sequence"`
}

// DefaultRules matches the visit export the system was built for.
func DefaultRules() Rules {
	m := normalize.DefaultMapping()
	cols := make(map[string][]string, len(m.Variants))
	for f, v := range m.Variants {
		cols[string(f)] = append([]string(nil), v...)
	}
	opts := sheet.VisitOptions()
	return Rules{
		Columns:           cols,
		ProcedureKeywords: m.ProcedureKeywords,
		NoStaff:           m.NoStaff,
		SheetHints:        opts.SheetHints,
		Header: HeaderRules{
			ScanRows: opts.ScanRows,
			MinHits:  opts.MinHits,
			Patterns: opts.Patterns,
			Literals: opts.Literals,
		},
		Sequence: SequenceRef{Month: 8, Year: 2025, Number: 401},
	}
}

// LoadRules reads a YAML rules file over the defaults. Keys absent from the
// file keep their default value; column lists replace the default list for
// that field.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read rules file: %w", err)
	}

	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return r, fmt.Errorf("parse rules file: %w", err)
	}

	for field, variants := range file.Columns {
		r.Columns[strings.ToLower(field)] = variants
	}
	if len(file.ProcedureKeywords) > 0 {
		r.ProcedureKeywords = file.ProcedureKeywords
	}
	if file.NoStaff != "" {
		r.NoStaff = file.NoStaff
	}
	if len(file.SheetHints) > 0 {
		r.SheetHints = file.SheetHints
	}
	if file.Header.ScanRows > 0 {
		r.Header.ScanRows = file.Header.ScanRows
	}
	if file.Header.MinHits > 0 {
		r.Header.MinHits = file.Header.MinHits
	}
	if len(file.Header.Patterns) > 0 {
		r.Header.Patterns = file.Header.Patterns
	}
	if len(file.Header.Literals) > 0 {
		r.Header.Literals = file.Header.Literals
	}
	if file.Sequence.Number > 0 {
		r.Sequence = file.Sequence
	}
	return r, r.validate()
}

func (r Rules) validate() error {
	for field := range r.Columns {
		if !knownField(field) {
			return fmt.Errorf("unknown column field %q in rules", field)
		}
	}
	if len(r.ProcedureKeywords) == 0 {
		return fmt.Errorf("procedure_keywords must not be empty")
	}
	if r.Sequence.Month < 1 || r.Sequence.Month > 12 {
		return fmt.Errorf("sequence.month must be between 1 and 12, got %d", r.Sequence.Month)
	}
	return nil
}

func knownField(name string) bool {
	for _, f := range normalize.Fields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// Mapping converts the rules into the row normalizer's mapping.
func (r Rules) Mapping() normalize.Mapping {
	m := normalize.Mapping{
		Variants:          make(map[normalize.Field][]string, len(r.Columns)),
		ProcedureKeywords: r.ProcedureKeywords,
		NoStaff:           r.NoStaff,
	}
	for field, variants := range r.Columns {
		m.Variants[normalize.Field(field)] = variants
	}
	return m
}

// SheetOptions converts the rules into header-detection options.
func (r Rules) SheetOptions() sheet.Options {
	return sheet.Options{
		SheetHints: r.SheetHints,
		ScanRows:   r.Header.ScanRows,
		MinHits:    r.Header.MinHits,
		Patterns:   r.Header.Patterns,
		Literals:   r.Header.Literals,
	}
}
