// Package rating prices normalized procedure lines.
package rating

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/pricing"
	"github.com/lucasmmg12/liquidaciones-osde/internal/refindex"
	"github.com/lucasmmg12/liquidaciones-osde/internal/surcharge"
)

var (
	FirstFactor      = decimal.NewFromInt(1)
	SubsequentFactor = decimal.RequireFromString("0.5")
	SurchargeFactor  = decimal.RequireFromString("0.20")
)

// Engine rates lines against one reference index, value table and holiday set.
type Engine struct {
	index    *refindex.Index
	prices   *pricing.Table
	holidays surcharge.HolidaySet
	suggest  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuggestions attaches the closest reference code to every missing line.
func WithSuggestions() Option {
	return func(e *Engine) { e.suggest = true }
}

func NewEngine(ix *refindex.Index, prices *pricing.Table, holidays surcharge.HolidaySet, opts ...Option) *Engine {
	e := &Engine{index: ix, prices: prices, holidays: holidays}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Result is the outcome of one rating pass. Missing is sorted by code.
type Result struct {
	Rated   []model.RatedLine
	Missing []model.MissingLine
}

type dayKey struct {
	staff string
	date  model.Date
}

// Rate walks lines in order. The first rated line of each (staff, date) pair
// in the batch bills at 1.0 and every later one at 0.5; lines that end up
// missing do not take the 1.0 slot. Undated lines share the zero date.
func (e *Engine) Rate(lines []model.ProcedureLine) *Result {
	res := &Result{Rated: make([]model.RatedLine, 0, len(lines))}
	seen := make(map[dayKey]int)
	missing := make(map[string]*model.MissingLine)

	for _, line := range lines {
		ref, strategy, ok := e.index.Lookup(line.Code, line.Description)
		if !ok {
			e.addMissing(missing, normalize.CanonicalCode(line.Code), line.Description, model.NoReferenceMatch)
			continue
		}
		unit, ok := e.prices.Lookup(ref.Complexity)
		if !ok {
			e.addMissing(missing, ref.Code, ref.Description, model.NoPriceForPeriod)
			continue
		}

		key := dayKey{staff: line.Staff, date: line.Date}
		base := FirstFactor
		if seen[key] > 0 {
			base = SubsequentFactor
		}
		seen[key]++

		factor := base
		applies := surcharge.Applies(line.Date, line.Time, e.holidays)
		if applies {
			factor = factor.Add(SurchargeFactor)
		}

		res.Rated = append(res.Rated, model.RatedLine{
			ProcedureLine:       line,
			ResolvedCode:        ref.Code,
			ResolvedDescription: ref.Description,
			Complexity:          model.ComplexityKey(ref.Complexity),
			Strategy:            strategy,
			UnitPrice:           unit,
			BaseFactor:          base,
			Factor:              factor,
			Surcharge:           applies,
			Amount:              unit.Mul(factor),
		})
	}

	res.Missing = make([]model.MissingLine, 0, len(missing))
	for _, m := range missing {
		res.Missing = append(res.Missing, *m)
	}
	sort.Slice(res.Missing, func(i, j int) bool { return res.Missing[i].Code < res.Missing[j].Code })
	return res
}

func (e *Engine) addMissing(acc map[string]*model.MissingLine, code, desc string, reason model.MissingReason) {
	if m, ok := acc[code]; ok {
		m.Occurrences++
		return
	}
	m := &model.MissingLine{Code: code, Description: desc, Reason: reason, Occurrences: 1}
	if e.suggest && reason == model.NoReferenceMatch {
		if s, ok := e.index.Suggest(desc); ok {
			m.Suggestion = s.Code
		}
	}
	acc[code] = m
}
