// Package pricing holds the per-period value table and copy-forward logic.
package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// Table maps complexity class to unit price for one period.
type Table struct {
	period model.Period
	prices map[string]decimal.Decimal
}

// Build keeps only entries of period.
func Build(period model.Period, entries []model.PriceEntry) *Table {
	t := &Table{period: period, prices: make(map[string]decimal.Decimal, len(entries))}
	for _, e := range entries {
		if e.Period != period {
			continue
		}
		t.prices[model.ComplexityKey(e.Complexity)] = e.UnitPrice
	}
	return t
}

func (t *Table) Period() model.Period {
	return t.period
}

func (t *Table) Len() int {
	return len(t.prices)
}

// Lookup returns the unit price for a complexity class; "" means no class.
func (t *Table) Lookup(complexity string) (decimal.Decimal, bool) {
	p, ok := t.prices[model.ComplexityKey(complexity)]
	return p, ok
}

// CopyForward re-keys src onto period to, raising every price by pct percent.
// Raised prices are rounded to cents. pct must be greater than -100.
func CopyForward(src []model.PriceEntry, to model.Period, pct decimal.Decimal) ([]model.PriceEntry, error) {
	if pct.LessThanOrEqual(decimal.NewFromInt(-100)) {
		return nil, &model.ValidationError{Field: "percentage", Message: fmt.Sprintf("must be greater than -100, got %s", pct)}
	}
	factor := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))

	out := make([]model.PriceEntry, 0, len(src))
	for _, e := range src {
		price := e.UnitPrice
		if !pct.IsZero() {
			price = normalize.RoundCents(price.Mul(factor))
		}
		out = append(out, model.PriceEntry{
			Complexity: model.ComplexityKey(e.Complexity),
			Period:     to,
			UnitPrice:  price,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Complexity < out[j].Complexity })
	return out, nil
}
