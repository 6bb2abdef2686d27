package liquidacion

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// Resolution is a manual correction for a missing code.
type Resolution struct {
	Code        string          `json:"codigo"`
	Description string          `json:"descripcion"`
	Complexity  string          `json:"complejidad"`
	Period      model.Period    `json:"periodo"`
	UnitPrice   decimal.Decimal `json:"valor"`
}

// ResolveResult reports what a resolution changed.
type ResolveResult struct {
	Code     string `json:"codigo"`
	Created  bool   `json:"creado"`
	Resolved int64  `json:"faltantes_resueltos"`
}

func (r Resolution) validate() error {
	if normalize.CanonicalCode(r.Code) == "" {
		return validationErr("code", "is required")
	}
	c := strings.TrimSpace(r.Complexity)
	if c == "" || c == model.NoComplexity {
		return validationErr("complexity", "is required")
	}
	if !r.UnitPrice.IsPositive() {
		return validationErr("unit_price", "must be positive, got %s", r.UnitPrice)
	}
	return r.Period.Validate()
}

// Resolve upserts the nomenclador entry and the period price for a code and
// closes its open missing lines. Already-recorded runs are not re-rated;
// callers re-run the batch to pick up the fix. Resolving the same code twice
// is harmless.
func (s *Service) Resolve(ctx context.Context, r Resolution) (*ResolveResult, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	code := normalize.CanonicalCode(r.Code)
	complexity := strings.TrimSpace(r.Complexity)

	created, err := s.store.UpsertProcedure(ctx, model.ReferenceEntry{
		Code:        code,
		Description: normalize.CollapseSpaces(r.Description),
		Complexity:  complexity,
		Active:      true,
	})
	if err != nil {
		return nil, persistErr("upsert procedure", err)
	}
	err = s.store.UpsertPrice(ctx, model.PriceEntry{
		Complexity: complexity,
		Period:     r.Period,
		UnitPrice:  normalize.RoundCents(r.UnitPrice),
	})
	if err != nil {
		return nil, persistErr("upsert price", err)
	}
	n, err := s.store.MarkMissingResolved(ctx, code, complexity)
	if err != nil {
		return nil, persistErr("mark missing resolved", err)
	}

	s.log.Info().
		Str("code", code).
		Str("complexity", complexity).
		Str("period", r.Period.String()).
		Bool("created", created).
		Int64("missing_resolved", n).
		Msg("missing code resolved")
	return &ResolveResult{Code: code, Created: created, Resolved: n}, nil
}
