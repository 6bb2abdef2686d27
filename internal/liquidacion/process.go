package liquidacion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucasmmg12/liquidaciones-osde/internal/aggregate"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
	"github.com/lucasmmg12/liquidaciones-osde/internal/pricing"
	"github.com/lucasmmg12/liquidaciones-osde/internal/rating"
	"github.com/lucasmmg12/liquidaciones-osde/internal/refindex"
	"github.com/lucasmmg12/liquidaciones-osde/internal/surcharge"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Input is one visit sheet to liquidate.
type Input struct {
	Sheet        *model.Sheet
	SourceName   string
	SourceSHA256 string
	Period       model.Period
	// DryRun rates the batch without recording a BatchRun.
	DryRun bool
}

// Stats are the row-level counters of a batch.
type Stats struct {
	RowsRead         int      `json:"filas_leidas"`
	RowsNoStaff      int      `json:"filas_sin_instrumentador"`
	RowsNoProcedure  int      `json:"filas_sin_procedimiento"`
	Lines            int      `json:"lineas"`
	Undated          int      `json:"sin_fecha"`
	OutsidePeriod    int      `json:"fuera_de_periodo"`
	ProcedureColumns []string `json:"columnas_procedimiento"`
	References       int      `json:"nomenclador"`
	Prices           int      `json:"valores"`
	Holidays         int      `json:"feriados"`
}

// Result is everything a batch produces. Run is nil on dry runs.
type Result struct {
	Run     *model.BatchRun     `json:"run,omitempty"`
	Stats   Stats               `json:"estadisticas"`
	Rated   []model.RatedLine   `json:"detalle"`
	Missing []model.MissingLine `json:"faltantes"`
	Summary []model.SummaryRow  `json:"resumen"`
	Totals  model.Totals        `json:"totales"`
}

// Process runs a batch: validate → normalize → load → rate → aggregate →
// persist. Unrated lines come back as Missing, never as an error. A failed
// batch records nothing.
func (s *Service) Process(ctx context.Context, in Input) (*Result, error) {
	totalStart := time.Now()
	log := s.log.With().Str("period", in.Period.String()).Str("source", in.SourceName).Logger()

	// Phase 1: Validate
	if err := in.Period.Validate(); err != nil {
		return nil, &PipelineError{Phase: "validate", Err: err}
	}
	if in.Sheet == nil {
		return nil, &PipelineError{Phase: "validate", Err: &model.InputFormatError{Reason: "no sheet to process"}}
	}

	// Phase 2: Normalize
	lr, err := normalize.Lines(in.Sheet, s.opts.Mapping)
	if err != nil {
		return nil, &PipelineError{Phase: "normalize", Err: err}
	}
	res := &Result{Stats: Stats{
		RowsRead:         lr.RowsRead,
		RowsNoStaff:      lr.RowsNoStaff,
		RowsNoProcedure:  lr.RowsNoProcedure,
		Lines:            len(lr.Lines),
		Undated:          lr.Undated,
		ProcedureColumns: lr.ProcedureColumns,
	}}
	for _, l := range lr.Lines {
		if !l.Date.IsZero() && !in.Period.Contains(l.Date) {
			res.Stats.OutsidePeriod++
		}
	}
	log.Info().
		Int("rows_read", lr.RowsRead).
		Int("lines", len(lr.Lines)).
		Int("rows_no_staff", lr.RowsNoStaff).
		Int("rows_no_procedure", lr.RowsNoProcedure).
		Int("undated", lr.Undated).
		Strs("procedure_columns", lr.ProcedureColumns).
		Msg("rows normalized")
	if res.Stats.OutsidePeriod > 0 {
		log.Warn().Int("lines", res.Stats.OutsidePeriod).Msg("lines dated outside the liquidation period")
	}

	// Phase 3: Load reference data
	start := time.Now()
	procs, err := s.store.ListActiveProcedures(ctx)
	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: persistErr("list procedures", err)}
	}
	prices, err := s.store.ListPrices(ctx, in.Period)
	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: persistErr("list prices", err)}
	}
	holidays, err := s.holidaySet(ctx)
	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: err}
	}
	res.Stats.References = len(procs)
	res.Stats.Prices = len(prices)
	res.Stats.Holidays = len(holidays)
	log.Info().
		Int("procedures", len(procs)).
		Int("prices", len(prices)).
		Int("holidays", len(holidays)).
		Dur("duration", time.Since(start)).
		Msg("reference data loaded")
	if len(prices) == 0 {
		log.Warn().Msg("no prices for period, every line will be missing")
	}

	// Phase 4: Rate
	var opts []rating.Option
	if s.opts.Suggest {
		opts = append(opts, rating.WithSuggestions())
	}
	engine := rating.NewEngine(refindex.Build(procs), pricing.Build(in.Period, prices), holidays, opts...)
	rated := engine.Rate(lr.Lines)
	res.Rated = rated.Rated
	res.Missing = rated.Missing

	// Phase 5: Aggregate
	res.Summary = aggregate.Summarize(res.Rated)
	res.Totals = aggregate.Totals(res.Rated, res.Missing)
	log.Info().
		Int("rated", res.Totals.ProcedureCount).
		Int("missing_codes", res.Totals.MissingCount).
		Str("total", res.Totals.TotalAmount.StringFixed(2)).
		Int("staff", len(res.Summary)).
		Msg("batch rated")

	// Phase 6: Persist
	if in.DryRun {
		log.Info().Dur("duration", time.Since(totalStart)).Msg("dry run, batch not recorded")
		return res, nil
	}
	run := &model.BatchRun{
		ID:           uuid.New(),
		Period:       in.Period,
		SourceFile:   in.SourceName,
		SourceSHA256: in.SourceSHA256,
		Totals:       res.Totals,
		Missing:      res.Missing,
	}
	if err := s.store.InsertBatchRun(ctx, run, res.Rated); err != nil {
		return nil, &PipelineError{Phase: "persist", Err: persistErr("insert batch run", err)}
	}
	res.Run = run

	log.Info().
		Str("batch_run_id", run.ID.String()).
		Dur("duration", time.Since(totalStart)).
		Msg("liquidation complete")
	return res, nil
}

// holidaySet loads stored holidays. The built-in calendar applies only until
// a calendar is first stored; an emptied calendar stays empty.
func (s *Service) holidaySet(ctx context.Context) (surcharge.HolidaySet, error) {
	stored, seeded, err := s.storedHolidays(ctx)
	if err != nil {
		return nil, err
	}
	if !seeded {
		s.log.Warn().Msg("no holiday calendar stored, using built-in calendar")
		return surcharge.NewHolidaySet(surcharge.DefaultHolidays()), nil
	}
	return surcharge.NewHolidaySet(stored), nil
}

// storedHolidays also reports a non-empty table as seeded, for calendars
// stored before the seeded marker existed.
func (s *Service) storedHolidays(ctx context.Context) ([]model.Holiday, bool, error) {
	stored, err := s.store.ListHolidays(ctx)
	if err != nil {
		return nil, false, persistErr("list holidays", err)
	}
	if len(stored) > 0 {
		return stored, true, nil
	}
	seeded, err := s.store.HolidaysSeeded(ctx)
	if err != nil {
		return nil, false, persistErr("holiday calendar state", err)
	}
	return stored, seeded, nil
}

// History lists the recorded runs of a period, newest first.
func (s *Service) History(ctx context.Context, p model.Period) ([]model.BatchRun, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	runs, err := s.store.ListBatchRuns(ctx, p)
	if err != nil {
		return nil, persistErr("list batch runs", err)
	}
	return runs, nil
}
