package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPayer  = "OSDE"
	DefaultModule = "instrumentadores"
)

// Period scopes every reference, price and batch lookup.
type Period struct {
	Month  int    `json:"mes" yaml:"month"`
	Year   int    `json:"anio" yaml:"year"`
	Payer  string `json:"obra_social" yaml:"payer"`
	Module string `json:"modulo" yaml:"module"`
}

// NewPeriod builds a Period with the default payer and module when blank.
func NewPeriod(month, year int, payer, module string) Period {
	p := Period{Month: month, Year: year, Payer: strings.TrimSpace(payer), Module: strings.TrimSpace(module)}
	if p.Payer == "" {
		p.Payer = DefaultPayer
	}
	if p.Module == "" {
		p.Module = DefaultModule
	}
	return p
}

// Validate reports the first invalid field as a *ValidationError.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &ValidationError{Field: "month", Message: fmt.Sprintf("must be between 1 and 12, got %d", p.Month)}
	}
	if p.Year < 2000 || p.Year > 2100 {
		return &ValidationError{Field: "year", Message: fmt.Sprintf("out of range: %d", p.Year)}
	}
	if p.Payer == "" {
		return &ValidationError{Field: "payer", Message: "is required"}
	}
	if p.Module == "" {
		return &ValidationError{Field: "module", Message: "is required"}
	}
	return nil
}

// Key is the composite identifier complexity lookups hang off.
func (p Period) Key() string {
	return fmt.Sprintf("%d|%d|%s|%s", p.Month, p.Year, p.Payer, p.Module)
}

func (p Period) String() string {
	return fmt.Sprintf("%02d/%d %s/%s", p.Month, p.Year, p.Payer, p.Module)
}

// index counts months from year zero so two periods can be subtracted.
func (p Period) index() int {
	return p.Year*12 + p.Month - 1
}

// MonthsSince returns the number of months from o to p (negative when p is earlier).
func (p Period) MonthsSince(o Period) int {
	return p.index() - o.index()
}

// AddMonths shifts the month/year keeping payer and module.
func (p Period) AddMonths(n int) Period {
	i := p.index() + n
	out := p
	out.Year = i / 12
	out.Month = i%12 + 1
	return out
}

// Previous is the month before p for the same payer and module.
func (p Period) Previous() Period {
	return p.AddMonths(-1)
}

// Contains reports whether d falls inside the period's calendar month.
func (p Period) Contains(d Date) bool {
	return d.Year == p.Year && d.Month == time.Month(p.Month)
}
