package liquidacion

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/pricing"
)

// CopyPeriod copies every price of from onto to unchanged.
func (s *Service) CopyPeriod(ctx context.Context, from, to model.Period) (int64, error) {
	return s.CopyPeriodWithIncrease(ctx, from, to, decimal.Zero)
}

// CopyPeriodWithIncrease copies the prices of from onto to raised by pct
// percent. to must be later than from, and from must have prices. Prices
// already present in to are overwritten.
func (s *Service) CopyPeriodWithIncrease(ctx context.Context, from, to model.Period, pct decimal.Decimal) (int64, error) {
	if err := from.Validate(); err != nil {
		return 0, err
	}
	if err := to.Validate(); err != nil {
		return 0, err
	}
	if to.MonthsSince(from) <= 0 {
		return 0, validationErr("to", "must be after %s", from)
	}

	src, err := s.store.ListPrices(ctx, from)
	if err != nil {
		return 0, persistErr("list prices", err)
	}
	if len(src) == 0 {
		return 0, validationErr("from", "no prices for %s", from)
	}
	out, err := pricing.CopyForward(src, to, pct)
	if err != nil {
		return 0, err
	}
	n, err := s.store.InsertPrices(ctx, out)
	if err != nil {
		return 0, persistErr("insert prices", err)
	}

	s.log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("increase_pct", pct.String()).
		Int64("prices", n).
		Msg("period copied")
	return n, nil
}

// ImportResult counts what a nomenclador import wrote.
type ImportResult struct {
	Procedures int64 `json:"procedimientos"`
	Prices     int64 `json:"valores"`
	Skipped    int   `json:"omitidas"`
}

// ImportReference loads a nomenclador sheet. Rows carrying a price also set
// the price of their complexity class in p; when several rows share a class
// the last one wins.
func (s *Service) ImportReference(ctx context.Context, sheet *model.Sheet, p model.Period) (*ImportResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rr, err := normalize.ReferenceRows(sheet)
	if err != nil {
		return nil, err
	}

	entries := make([]model.ReferenceEntry, 0, len(rr.Rows))
	byCode := make(map[string]int, len(rr.Rows))
	priceByClass := make(map[string]decimal.Decimal)
	for _, row := range rr.Rows {
		// a duplicate code in one COPY would abort it; keep the last row
		if i, ok := byCode[row.Entry.Code]; ok {
			entries[i] = row.Entry
		} else {
			byCode[row.Entry.Code] = len(entries)
			entries = append(entries, row.Entry)
		}
		if row.HasPrice {
			priceByClass[model.ComplexityKey(row.Entry.Complexity)] = normalize.RoundCents(row.Price)
		}
	}

	res := &ImportResult{Skipped: rr.Skipped}
	if res.Procedures, err = s.store.InsertProcedures(ctx, entries); err != nil {
		return nil, persistErr("insert procedures", err)
	}
	if len(priceByClass) > 0 {
		var prices []model.PriceEntry
		for c, v := range priceByClass {
			prices = append(prices, model.PriceEntry{Complexity: c, Period: p, UnitPrice: v})
		}
		if res.Prices, err = s.store.InsertPrices(ctx, prices); err != nil {
			return nil, persistErr("insert prices", err)
		}
	}

	s.log.Info().
		Int64("procedures", res.Procedures).
		Int64("prices", res.Prices).
		Int("skipped", res.Skipped).
		Str("period", p.String()).
		Msg("nomenclador imported")
	return res, nil
}
