package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lucasmmg12/liquidaciones-osde/internal/db"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

const lineBufferSize = 256

var (
	priceColumns     = []string{"complexity", "month", "year", "payer", "module", "unit_price"}
	procedureColumns = []string{"code", "description", "complexity", "active"}
	missingColumns   = []string{"batch_run_id", "code", "description", "reason", "occurrences", "suggestion"}
	lineColumns      = []string{
		"batch_run_id", "line_no", "source_row", "position", "visit_date", "visit_time",
		"patient", "code", "resolved_code", "description", "surgeon", "staff", "payer",
		"complexity", "strategy", "unit_price", "factor", "surcharge", "amount",
	}
)

// PG is the Postgres-backed reference, price and audit store.
type PG struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPG(pool *pgxpool.Pool, log zerolog.Logger) *PG {
	return &PG{pool: pool, log: log}
}

// ListActiveProcedures returns the active nomenclador ordered by code.
func (s *PG) ListActiveProcedures(ctx context.Context) ([]model.ReferenceEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, description, COALESCE(complexity, ''), active
		FROM liq.procedures
		WHERE active
		ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ReferenceEntry, error) {
		var e model.ReferenceEntry
		err := row.Scan(&e.Code, &e.Description, &e.Complexity, &e.Active)
		return e, err
	})
}

// ListPrices returns every price row of the period.
func (s *PG) ListPrices(ctx context.Context, p model.Period) ([]model.PriceEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT complexity, unit_price
		FROM liq.prices
		WHERE month = $1 AND year = $2 AND payer = $3 AND module = $4
		ORDER BY complexity`,
		p.Month, p.Year, p.Payer, p.Module,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PriceEntry, error) {
		var (
			e     = model.PriceEntry{Period: p}
			price pgtype.Numeric
		)
		if err := row.Scan(&e.Complexity, &price); err != nil {
			return e, err
		}
		d, err := fromNumeric(price)
		if err != nil {
			return e, fmt.Errorf("price %s: %w", e.Complexity, err)
		}
		e.UnitPrice = d
		return e, nil
	})
}

// UpsertProcedure inserts or updates a nomenclador entry and reactivates it.
// An empty description keeps the stored one. created reports an insert.
func (s *PG) UpsertProcedure(ctx context.Context, e model.ReferenceEntry) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO liq.procedures (code, description, complexity, active)
		VALUES ($1, COALESCE(NULLIF($2::text, ''), $1), $3, true)
		ON CONFLICT (code) DO UPDATE SET
			description = CASE WHEN $2::text = '' THEN liq.procedures.description ELSE EXCLUDED.description END,
			complexity  = EXCLUDED.complexity,
			active      = true,
			updated_at  = now()
		RETURNING (xmax = 0)`,
		e.Code, e.Description, nilIfEmpty(model.ComplexityDisplay(e.Complexity)),
	).Scan(&created)
	return created, err
}

// UpsertPrice sets the unit price of one complexity class in one period.
func (s *PG) UpsertPrice(ctx context.Context, p model.PriceEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liq.prices (complexity, month, year, payer, module, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (complexity, month, year, payer, module) DO UPDATE SET
			unit_price = EXCLUDED.unit_price,
			updated_at = now()`,
		model.ComplexityKey(p.Complexity), p.Period.Month, p.Period.Year, p.Period.Payer, p.Period.Module,
		toNumeric(p.UnitPrice),
	)
	return err
}

// InsertPrices bulk-loads prices with COPY. If any row already exists the
// copy is rolled back and every row is upserted instead.
func (s *PG) InsertPrices(ctx context.Context, prices []model.PriceEntry) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(prices))
	for i, p := range prices {
		rows[i] = []any{
			model.ComplexityKey(p.Complexity), p.Period.Month, p.Period.Year, p.Period.Payer, p.Period.Module,
			toNumeric(p.UnitPrice),
		}
	}
	n, err := s.copyRows(ctx, pgx.Identifier{"liq", "prices"}, priceColumns, rows)
	if err == nil {
		return n, nil
	}
	if !isUniqueViolation(err) {
		return 0, err
	}

	s.log.Warn().Int("rows", len(prices)).Msg("price copy hit existing rows, upserting one by one")
	for _, p := range prices {
		if err := s.UpsertPrice(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert price %s: %w", p.Complexity, err)
		}
	}
	return int64(len(prices)), nil
}

// InsertProcedures bulk-loads nomenclador entries with the same duplicate
// fallback as InsertPrices.
func (s *PG) InsertProcedures(ctx context.Context, entries []model.ReferenceEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(entries))
	for i, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = e.Code
		}
		rows[i] = []any{e.Code, desc, nilIfEmpty(model.ComplexityDisplay(e.Complexity)), true}
	}
	n, err := s.copyRows(ctx, pgx.Identifier{"liq", "procedures"}, procedureColumns, rows)
	if err == nil {
		return n, nil
	}
	if !isUniqueViolation(err) {
		return 0, err
	}

	s.log.Warn().Int("rows", len(entries)).Msg("procedure copy hit existing codes, upserting one by one")
	for _, e := range entries {
		if _, err := s.UpsertProcedure(ctx, e); err != nil {
			return 0, fmt.Errorf("upsert procedure %s: %w", e.Code, err)
		}
	}
	return int64(len(entries)), nil
}

func (s *PG) copyRows(ctx context.Context, table pgx.Identifier, columns []string, rows [][]any) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := tx.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

type numberedLine struct {
	no   int
	line *model.RatedLine
}

// InsertBatchRun records a run, its missing lines and its rated lines in one
// transaction.
func (s *PG) InsertBatchRun(ctx context.Context, run *model.BatchRun, rated []model.RatedLine) error {
	start := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	p := run.Period
	err = tx.QueryRow(ctx, `
		INSERT INTO liq.batch_runs
			(batch_run_id, month, year, payer, module, source_file, source_sha256,
			 procedure_count, total_amount, missing_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		run.ID, p.Month, p.Year, p.Payer, p.Module, run.SourceFile, run.SourceSHA256,
		run.Totals.ProcedureCount, toNumeric(run.Totals.TotalAmount.Round(2)), run.Totals.MissingCount,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}

	if err := insertMissingLines(ctx, tx, run.ID, run.Missing); err != nil {
		return err
	}

	ch := make(chan numberedLine, lineBufferSize)
	go func() {
		defer close(ch)
		for i := range rated {
			select {
			case ch <- numberedLine{no: i + 1, line: &rated[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	source := db.NewChannelSource(ch, func(nl numberedLine) []any {
		return lineValues(run.ID, nl)
	})
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"liq", "batch_lines"}, lineColumns, source)
	if err != nil {
		// drain so the producer exits
		for range ch {
		}
		return fmt.Errorf("copy batch lines: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Debug().
		Str("batch_run_id", run.ID.String()).
		Int64("lines", n).
		Int("missing", len(run.Missing)).
		Dur("duration", time.Since(start)).
		Msg("batch run recorded")
	return nil
}

func insertMissingLines(ctx context.Context, tx pgx.Tx, runID uuid.UUID, missing []model.MissingLine) error {
	if len(missing) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"liq", "missing_lines"}, missingColumns,
		pgx.CopyFromSlice(len(missing), func(i int) ([]any, error) {
			m := missing[i]
			return []any{runID, m.Code, m.Description, string(m.Reason), m.Occurrences, nilIfEmpty(m.Suggestion)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy missing lines: %w", err)
	}
	return nil
}

func lineValues(runID uuid.UUID, nl numberedLine) []any {
	l := nl.line
	var visitDate *time.Time
	if !l.Date.IsZero() {
		t := l.Date.Time()
		visitDate = &t
	}
	return []any{
		runID, nl.no, l.SourceRow, l.Position, visitDate, nilIfEmpty(l.TimeString()),
		l.Patient, l.Code, l.ResolvedCode, l.ResolvedDescription, l.Surgeon, l.Staff, l.Payer,
		l.Complexity, string(l.Strategy), toNumeric(l.UnitPrice), toNumeric(l.Factor), l.Surcharge,
		toNumeric(l.Amount),
	}
}

// ListBatchRuns returns the runs of a period, newest first, with their
// missing lines.
func (s *PG) ListBatchRuns(ctx context.Context, p model.Period) ([]model.BatchRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT batch_run_id, source_file, source_sha256, procedure_count, total_amount,
		       missing_count, created_at
		FROM liq.batch_runs
		WHERE month = $1 AND year = $2 AND payer = $3 AND module = $4
		ORDER BY created_at DESC`,
		p.Month, p.Year, p.Payer, p.Module,
	)
	if err != nil {
		return nil, err
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BatchRun, error) {
		var (
			r     = model.BatchRun{Period: p}
			total pgtype.Numeric
		)
		err := row.Scan(&r.ID, &r.SourceFile, &r.SourceSHA256, &r.Totals.ProcedureCount, &total,
			&r.Totals.MissingCount, &r.CreatedAt)
		if err != nil {
			return r, err
		}
		r.Totals.TotalAmount, err = fromNumeric(total)
		return r, err
	})
	if err != nil {
		return nil, err
	}

	for i := range runs {
		missing, err := s.listMissing(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Missing = missing
	}
	return runs, nil
}

func (s *PG) listMissing(ctx context.Context, runID uuid.UUID) ([]model.MissingLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, description, reason, occurrences, COALESCE(suggestion, '')
		FROM liq.missing_lines
		WHERE batch_run_id = $1
		ORDER BY code`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MissingLine, error) {
		var (
			m      model.MissingLine
			reason string
		)
		err := row.Scan(&m.Code, &m.Description, &reason, &m.Occurrences, &m.Suggestion)
		m.Reason = model.MissingReason(reason)
		return m, err
	})
}

// MarkMissingResolved closes every open missing line for code.
func (s *PG) MarkMissingResolved(ctx context.Context, code, complexity string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE liq.missing_lines
		SET resolved = true, assigned_complexity = $2, resolved_at = now()
		WHERE code = $1 AND NOT resolved`,
		code, complexity,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListHolidays returns the holiday set ordered by date.
func (s *PG) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	rows, err := s.pool.Query(ctx, "SELECT day, description FROM liq.holidays ORDER BY day")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Holiday, error) {
		var (
			h   model.Holiday
			day time.Time
		)
		err := row.Scan(&day, &h.Description)
		h.Date = model.DateOf(day)
		return h, err
	})
}

// AddHoliday returns model.ErrDuplicateHoliday when the date already exists.
func (s *PG) AddHoliday(ctx context.Context, h model.Holiday) error {
	tag, err := s.pool.Exec(ctx,
		"INSERT INTO liq.holidays (day, description) VALUES ($1, $2) ON CONFLICT (day) DO NOTHING",
		h.Date.Time(), h.Description,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicateHoliday
	}
	return nil
}

// RemoveHoliday reports whether the date was a holiday.
func (s *PG) RemoveHoliday(ctx context.Context, d model.Date) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM liq.holidays WHERE day = $1", d.Time())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReplaceHolidays swaps the whole holiday set atomically and marks the
// calendar as seeded.
func (s *PG) ReplaceHolidays(ctx context.Context, holidays []model.Holiday) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM liq.holidays"); err != nil {
		return fmt.Errorf("clear holidays: %w", err)
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"liq", "holidays"}, []string{"day", "description"},
		pgx.CopyFromSlice(len(holidays), func(i int) ([]any, error) {
			return []any{holidays[i].Date.Time(), holidays[i].Description}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy holidays: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO liq.holiday_calendar (singleton) VALUES (true)
		ON CONFLICT (singleton) DO UPDATE SET seeded_at = now()`)
	if err != nil {
		return fmt.Errorf("mark calendar seeded: %w", err)
	}
	return tx.Commit(ctx)
}

// HolidaysSeeded reports whether a calendar was ever stored, even if every
// holiday has since been removed.
func (s *PG) HolidaysSeeded(ctx context.Context) (bool, error) {
	var seeded bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM liq.holiday_calendar)").Scan(&seeded)
	return seeded, err
}

// LookupStaffLicense finds the license of an active staff member by
// case-insensitive name.
func (s *PG) LookupStaffLicense(ctx context.Context, name string) (string, bool, error) {
	var license string
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(license, '')
		FROM liq.staff
		WHERE lower(name) = lower($1) AND active
		LIMIT 1`,
		name,
	).Scan(&license)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return license, true, nil
}

// UpsertStaff adds or updates a staff directory record. Names match
// case-insensitively; the latest spelling is kept.
func (s *PG) UpsertStaff(ctx context.Context, m model.StaffMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liq.staff (name, license, active)
		VALUES ($1, $2, $3)
		ON CONFLICT ((lower(name))) DO UPDATE
		SET name = EXCLUDED.name, license = EXCLUDED.license, active = EXCLUDED.active`,
		m.Name, nilIfEmpty(m.License), m.Active,
	)
	return err
}

// GetSequenceNumber returns a stored liquidation number override.
func (s *PG) GetSequenceNumber(ctx context.Context, p model.Period) (int, bool, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT number FROM liq.sequence_numbers
		WHERE month = $1 AND year = $2 AND payer = $3 AND module = $4`,
		p.Month, p.Year, p.Payer, p.Module,
	).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *PG) SetSequenceNumber(ctx context.Context, p model.Period, n int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO liq.sequence_numbers (month, year, payer, module, number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (month, year, payer, module) DO UPDATE SET
			number = EXCLUDED.number,
			updated_at = now()`,
		p.Month, p.Year, p.Payer, p.Module, n,
	)
	return err
}
