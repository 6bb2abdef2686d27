// Package archive stores the rated lines of a batch as a Parquet file so a
// run can be audited without the database.
package archive

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// Row is one rated line on disk. Money and factors are decimal strings so
// they round-trip exactly.
type Row struct {
	BatchRunID   string  `parquet:"batch_run_id"`
	LineNo       int32   `parquet:"line_no"`
	SourceRow    int32   `parquet:"source_row"`
	Position     int32   `parquet:"position"`
	VisitDate    *string `parquet:"visit_date,optional"`
	VisitTime    *string `parquet:"visit_time,optional"`
	Patient      string  `parquet:"patient"`
	Code         string  `parquet:"code"`
	ResolvedCode string  `parquet:"resolved_code"`
	Description  string  `parquet:"description"`
	Surgeon      string  `parquet:"surgeon"`
	Staff        string  `parquet:"staff"`
	Payer        string  `parquet:"payer"`
	Complexity   string  `parquet:"complexity"`
	Strategy     string  `parquet:"strategy"`
	UnitPrice    string  `parquet:"unit_price"`
	Factor       string  `parquet:"factor"`
	Surcharge    bool    `parquet:"surcharge"`
	Amount       string  `parquet:"amount"`
}

func fromRated(batchID uuid.UUID, no int, r *model.RatedLine) Row {
	row := Row{
		BatchRunID:   batchID.String(),
		LineNo:       int32(no),
		SourceRow:    int32(r.SourceRow),
		Position:     int32(r.Position),
		Patient:      r.Patient,
		Code:         r.Code,
		ResolvedCode: r.ResolvedCode,
		Description:  r.ResolvedDescription,
		Surgeon:      r.Surgeon,
		Staff:        r.Staff,
		Payer:        r.Payer,
		Complexity:   r.Complexity,
		Strategy:     string(r.Strategy),
		UnitPrice:    r.UnitPrice.String(),
		Factor:       r.Factor.String(),
		Surcharge:    r.Surcharge,
		Amount:       r.Amount.String(),
	}
	if !r.Date.IsZero() {
		iso := r.Date.ISO()
		row.VisitDate = &iso
	}
	if r.Time != nil {
		ts := r.Time.String()
		row.VisitTime = &ts
	}
	return row
}

// AmountValue parses the stored amount.
func (r Row) AmountValue() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d amount %q: %w", r.LineNo, r.Amount, err)
	}
	return d, nil
}
