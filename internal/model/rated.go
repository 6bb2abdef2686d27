package model

import "github.com/shopspring/decimal"

// MatchStrategy names the reference index that resolved a line.
type MatchStrategy string

const (
	MatchExactCode      MatchStrategy = "exact_code"
	MatchNormalizedCode MatchStrategy = "normalized_code"
	MatchFingerprint    MatchStrategy = "description"
)

// MissingReason is why a line could not be rated.
type MissingReason string

const (
	NoReferenceMatch MissingReason = "no_reference"
	NoPriceForPeriod MissingReason = "no_price"
)

// RatedLine is a procedure line joined with its reference entry and price.
type RatedLine struct {
	ProcedureLine
	ResolvedCode        string          `json:"codigo_nomenclador"`
	ResolvedDescription string          `json:"descripcion_nomenclador"`
	Complexity          string          `json:"complejidad"`
	Strategy            MatchStrategy   `json:"estrategia"`
	UnitPrice           decimal.Decimal `json:"valor"`
	BaseFactor          decimal.Decimal `json:"factor_base"`
	Factor              decimal.Decimal `json:"factor"`
	Surcharge           bool            `json:"plus_horario"`
	Amount              decimal.Decimal `json:"importe"`
}

// MissingLine aggregates the lines of one code that failed to rate.
type MissingLine struct {
	Code        string        `json:"codigo"`
	Description string        `json:"procedimiento"`
	Reason      MissingReason `json:"motivo"`
	Occurrences int           `json:"ocurrencias"`
	// Suggestion is the closest reference code by description, if any.
	Suggestion string `json:"sugerencia,omitempty"`
}
