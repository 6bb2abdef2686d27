package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryRow is the per-staff aggregate of rated lines.
type SummaryRow struct {
	Staff string          `json:"instrumentador"`
	Count int             `json:"cantidad"`
	Total decimal.Decimal `json:"total"`
}

// Totals are batch-level figures. MissingCount counts distinct missing codes.
type Totals struct {
	ProcedureCount int             `json:"procedimientos"`
	TotalAmount    decimal.Decimal `json:"liquidado"`
	MissingCount   int             `json:"faltantes"`
}

// BatchRun is one persisted execution of the pipeline. It is never updated.
type BatchRun struct {
	ID           uuid.UUID     `json:"id"`
	Period       Period        `json:"periodo"`
	SourceFile   string        `json:"archivo"`
	SourceSHA256 string        `json:"sha256"`
	Totals       Totals        `json:"totales"`
	Missing      []MissingLine `json:"faltantes"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Holiday is one entry of the holiday set.
type Holiday struct {
	Date        Date   `json:"fecha" yaml:"date"`
	Description string `json:"descripcion" yaml:"description"`
}

// StaffMember is a staff directory record.
type StaffMember struct {
	Name    string `json:"nombre"`
	License string `json:"matricula"`
	Active  bool   `json:"activo"`
}
