// Package liquidacion runs liquidation batches and the administrative
// operations around them (missing-code resolution, period copy, holidays,
// sequence numbers).
package liquidacion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lucasmmg12/liquidaciones-osde/internal/config"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// Store is the reference, price and audit persistence the service needs.
type Store interface {
	ListActiveProcedures(ctx context.Context) ([]model.ReferenceEntry, error)
	ListPrices(ctx context.Context, p model.Period) ([]model.PriceEntry, error)
	UpsertProcedure(ctx context.Context, e model.ReferenceEntry) (bool, error)
	UpsertPrice(ctx context.Context, p model.PriceEntry) error
	InsertProcedures(ctx context.Context, entries []model.ReferenceEntry) (int64, error)
	InsertPrices(ctx context.Context, prices []model.PriceEntry) (int64, error)

	InsertBatchRun(ctx context.Context, run *model.BatchRun, rated []model.RatedLine) error
	ListBatchRuns(ctx context.Context, p model.Period) ([]model.BatchRun, error)
	MarkMissingResolved(ctx context.Context, code, complexity string) (int64, error)

	ListHolidays(ctx context.Context) ([]model.Holiday, error)
	AddHoliday(ctx context.Context, h model.Holiday) error
	RemoveHoliday(ctx context.Context, d model.Date) (bool, error)
	ReplaceHolidays(ctx context.Context, holidays []model.Holiday) error
	HolidaysSeeded(ctx context.Context) (bool, error)

	LookupStaffLicense(ctx context.Context, name string) (string, bool, error)
	UpsertStaff(ctx context.Context, m model.StaffMember) error

	GetSequenceNumber(ctx context.Context, p model.Period) (int, bool, error)
	SetSequenceNumber(ctx context.Context, p model.Period, n int) error
}

// Options are the business rules a Service runs with.
type Options struct {
	Mapping  normalize.Mapping
	Sequence config.SequenceRef
	// Suggest attaches the closest nomenclador code to unmatched lines.
	Suggest bool
}

// Service is safe for concurrent use; all state lives in the Store.
type Service struct {
	store Store
	log   zerolog.Logger
	opts  Options
}

func New(store Store, log zerolog.Logger, opts Options) *Service {
	if opts.Mapping.Variants == nil {
		opts.Mapping = normalize.DefaultMapping()
	}
	if opts.Sequence.Number == 0 {
		opts.Sequence = config.DefaultRules().Sequence
	}
	return &Service{store: store, log: log, opts: opts}
}

func persistErr(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}

func validationErr(field, format string, args ...any) error {
	return &model.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
