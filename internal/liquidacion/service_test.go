package liquidacion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/config"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/store"
)

var (
	_ Store = (*store.PG)(nil)
	_ Store = (*store.Memory)(nil)
)

var aug = model.NewPeriod(8, 2025, "", "")

var visitHeader = []string{
	"Fecha de visita", "Hora de comienzo", "Paciente", "Cirujano", "Instrumentador/a",
	"Procedimiento Quirúrgico", "Procedimiento Quirúrgico 2",
}

func visitSheet(rows ...[]string) *model.Sheet {
	s := &model.Sheet{Name: "Hoja1", Header: visitHeader}
	for i, cells := range rows {
		r := model.RawVisitRow{Index: i + 2, Cells: make(map[string]string)}
		for j, v := range cells {
			r.Cells[visitHeader[j]] = v
		}
		s.Rows = append(s.Rows, r)
	}
	return s
}

func seededService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	_, _ = mem.InsertProcedures(ctx, []model.ReferenceEntry{
		{Code: "A", Description: "ARTROSCOPIA", Complexity: "X", Active: true},
		{Code: "B", Description: "BIOPSIA", Active: true},
	})
	_, _ = mem.InsertPrices(ctx, []model.PriceEntry{
		{Complexity: "X", Period: aug, UnitPrice: decimal.NewFromInt(30000)},
		{Complexity: "", Period: aug, UnitPrice: decimal.NewFromInt(18000)},
	})
	log := logging.Setup("text", "error")
	return New(mem, log, Options{}), mem
}

func TestProcess_TwoVisitsSameDay(t *testing.T) {
	svc, mem := seededService(t)
	sheet := visitSheet(
		[]string{"12/08/2025", "10:00", "P1", "Dr. X", "Pérez Ana", "A - ARTROSCOPIA"},
		[]string{"12/08/2025", "11:00", "P2", "Dr. X", "Pérez Ana", "B - BIOPSIA"},
	)

	res, err := svc.Process(context.Background(), Input{Sheet: sheet, SourceName: "visitas.xlsx", Period: aug})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rated) != 2 {
		t.Fatalf("got %d rated lines", len(res.Rated))
	}
	if !res.Rated[0].Amount.Equal(decimal.NewFromInt(30000)) || !res.Rated[1].Amount.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("amounts: %s, %s", res.Rated[0].Amount, res.Rated[1].Amount)
	}
	if len(res.Summary) != 1 || res.Summary[0].Count != 2 || !res.Summary[0].Total.Equal(decimal.NewFromInt(39000)) {
		t.Errorf("summary: %+v", res.Summary)
	}
	if res.Totals.ProcedureCount != 2 || res.Totals.MissingCount != 0 {
		t.Errorf("totals: %+v", res.Totals)
	}
	if res.Run == nil {
		t.Fatal("run not recorded")
	}
	runs, _ := mem.ListBatchRuns(context.Background(), aug)
	if len(runs) != 1 || runs[0].SourceFile != "visitas.xlsx" {
		t.Errorf("stored runs: %+v", runs)
	}
	if len(mem.Lines(0)) != 2 {
		t.Errorf("stored lines: %d", len(mem.Lines(0)))
	}
}

func TestProcess_MissingCode(t *testing.T) {
	svc, _ := seededService(t)
	sheet := visitSheet(
		[]string{"12/08/2025", "10:00", "P1", "Dr. X", "Pérez Ana", "A - ARTROSCOPIA"},
		[]string{"12/08/2025", "11:00", "P2", "Dr. X", "Pérez Ana", "C - CURETAJE"},
	)

	res, err := svc.Process(context.Background(), Input{Sheet: sheet, Period: aug, DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rated) != 1 || len(res.Missing) != 1 {
		t.Fatalf("got %d rated, %d missing", len(res.Rated), len(res.Missing))
	}
	m := res.Missing[0]
	if m.Code != "C" || m.Occurrences != 1 || m.Reason != model.NoReferenceMatch {
		t.Errorf("missing: %+v", m)
	}
	if res.Totals.MissingCount != 1 {
		t.Errorf("faltantes: got %d", res.Totals.MissingCount)
	}
	if res.Run != nil {
		t.Error("dry run should not record a batch")
	}
}

func TestProcess_ResolveThenRerun(t *testing.T) {
	svc, mem := seededService(t)
	ctx := context.Background()
	sheet := visitSheet(
		[]string{"12/08/2025", "10:00", "P1", "Dr. X", "Pérez Ana", "C - CURETAJE", "A - ARTROSCOPIA"},
	)

	first, err := svc.Process(ctx, Input{Sheet: sheet, Period: aug})
	if err != nil {
		t.Fatal(err)
	}
	if first.Totals.MissingCount != 1 {
		t.Fatalf("first run missing: %d", first.Totals.MissingCount)
	}

	r := Resolution{Code: "c", Description: "CURETAJE", Complexity: "Y", Period: aug, UnitPrice: decimal.NewFromInt(20000)}
	got, err := svc.Resolve(ctx, r)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Code != "C" || !got.Created || got.Resolved != 1 {
		t.Errorf("resolve result: %+v", got)
	}
	again, err := svc.Resolve(ctx, r)
	if err != nil || again.Created || again.Resolved != 0 {
		t.Errorf("second resolve: %+v, %v", again, err)
	}
	if c, _ := mem.ResolvedComplexity("C"); c != "Y" {
		t.Errorf("resolved complexity: %q", c)
	}

	second, err := svc.Process(ctx, Input{Sheet: sheet, Period: aug})
	if err != nil {
		t.Fatal(err)
	}
	if second.Totals.MissingCount != 0 || len(second.Rated) != 2 {
		t.Fatalf("second run: %+v", second.Totals)
	}
	// C now takes the first slot of the day.
	if !second.Rated[0].Amount.Equal(decimal.NewFromInt(20000)) || !second.Rated[1].Amount.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("amounts: %s, %s", second.Rated[0].Amount, second.Rated[1].Amount)
	}
	if !second.Totals.TotalAmount.Equal(decimal.NewFromInt(35000)) {
		t.Errorf("total: %s", second.Totals.TotalAmount)
	}
}

func TestResolve_SecondPriceWins(t *testing.T) {
	svc, mem := seededService(t)
	ctx := context.Background()

	r := Resolution{Code: "C", Complexity: "Y", Period: aug, UnitPrice: decimal.NewFromInt(20000)}
	if _, err := svc.Resolve(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.UnitPrice = decimal.NewFromInt(25000)
	if _, err := svc.Resolve(ctx, r); err != nil {
		t.Fatal(err)
	}

	prices, err := mem.ListPrices(ctx, aug)
	if err != nil {
		t.Fatal(err)
	}
	var forY []model.PriceEntry
	for _, p := range prices {
		if p.Complexity == "Y" {
			forY = append(forY, p)
		}
	}
	if len(forY) != 1 {
		t.Fatalf("got %d prices for class Y, want 1", len(forY))
	}
	if !forY[0].UnitPrice.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("got %s, want 25000", forY[0].UnitPrice)
	}
}

func TestProcess_Errors(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	t.Run("invalid period", func(t *testing.T) {
		_, err := svc.Process(ctx, Input{Sheet: visitSheet(), Period: model.NewPeriod(13, 2025, "", "")})
		var pe *PipelineError
		if !errors.As(err, &pe) || pe.Phase != "validate" || !model.IsValidation(err) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("no procedure columns", func(t *testing.T) {
		sheet := &model.Sheet{Header: []string{"Fecha", "Paciente"}}
		_, err := svc.Process(ctx, Input{Sheet: sheet, Period: aug})
		var pe *PipelineError
		if !errors.As(err, &pe) || pe.Phase != "normalize" || !model.IsInputFormat(err) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		broken := New(failingStore{Memory: store.NewMemory()}, logging.Setup("text", "error"), Options{})
		sheet := visitSheet([]string{"12/08/2025", "", "P1", "", "Ana", "A"})
		_, err := broken.Process(ctx, Input{Sheet: sheet, Period: aug})
		var pe *model.PersistenceError
		if !errors.As(err, &pe) || pe.Op != "list prices" {
			t.Errorf("got %v", err)
		}
	})
}

type failingStore struct {
	*store.Memory
}

func (failingStore) ListPrices(context.Context, model.Period) ([]model.PriceEntry, error) {
	return nil, errors.New("connection refused")
}

func TestProcess_Stats(t *testing.T) {
	svc, _ := seededService(t)
	sheet := visitSheet(
		[]string{"12/08/2025", "", "P1", "", "Ana", "A", "B"},
		[]string{"30/07/2025", "", "P2", "", "Ana", "A"},
		[]string{"", "", "P3", "", "SIN INSTRUMENTADOR", "A"},
		[]string{"", "", "P4", "", "Ana", ""},
	)
	res, err := svc.Process(context.Background(), Input{Sheet: sheet, Period: aug, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	st := res.Stats
	if st.RowsRead != 4 || st.Lines != 3 || st.RowsNoStaff != 1 || st.RowsNoProcedure != 1 || st.OutsidePeriod != 1 {
		t.Errorf("stats: %+v", st)
	}
	if st.Holidays == 0 {
		t.Error("built-in holidays should be used when none are stored")
	}
}

func TestResolve_Validation(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	base := Resolution{Code: "Z", Complexity: "X", Period: aug, UnitPrice: decimal.NewFromInt(10)}

	tests := []struct {
		name  string
		edit  func(*Resolution)
		field string
	}{
		{"empty complexity", func(r *Resolution) { r.Complexity = " " }, "complexity"},
		{"zero price", func(r *Resolution) { r.UnitPrice = decimal.Zero }, "unit_price"},
		{"negative price", func(r *Resolution) { r.UnitPrice = decimal.NewFromInt(-5) }, "unit_price"},
		{"empty code", func(r *Resolution) { r.Code = "" }, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.edit(&r)
			_, err := svc.Resolve(ctx, r)
			var ve *model.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("got %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestCopyPeriodWithIncrease(t *testing.T) {
	svc, mem := seededService(t)
	ctx := context.Background()
	sep := aug.AddMonths(1)

	n, err := svc.CopyPeriodWithIncrease(ctx, aug, sep, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("copied %d prices", n)
	}
	prices, _ := mem.ListPrices(ctx, sep)
	want := map[string]string{"X": "33000", model.NoComplexity: "19800"}
	for _, p := range prices {
		if !p.UnitPrice.Equal(decimal.RequireFromString(want[p.Complexity])) {
			t.Errorf("%s: got %s, want %s", p.Complexity, p.UnitPrice, want[p.Complexity])
		}
	}

	// copying again overwrites rather than failing
	if _, err := svc.CopyPeriod(ctx, aug, sep); err != nil {
		t.Fatalf("recopy: %v", err)
	}
	prices, _ = mem.ListPrices(ctx, sep)
	for _, p := range prices {
		if p.Complexity == "X" && !p.UnitPrice.Equal(decimal.NewFromInt(30000)) {
			t.Errorf("recopy: got %s", p.UnitPrice)
		}
	}
}

func TestCopyPeriod_Validation(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to model.Period
		pct      decimal.Decimal
		field    string
	}{
		{"same period", aug, aug, decimal.Zero, "to"},
		{"backwards", aug, aug.Previous(), decimal.Zero, "to"},
		{"empty source", aug.AddMonths(1), aug.AddMonths(2), decimal.Zero, "from"},
		{"pct too low", aug, aug.AddMonths(1), decimal.NewFromInt(-100), "percentage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CopyPeriodWithIncrease(ctx, tt.from, tt.to, tt.pct)
			var ve *model.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("got %v, want validation error on %s", err, tt.field)
			}
		})
	}
}

func TestHolidays(t *testing.T) {
	svc, mem := seededService(t)
	ctx := context.Background()

	all, err := svc.Holidays(ctx)
	if err != nil || len(all) == 0 {
		t.Fatalf("defaults: %d, %v", len(all), err)
	}

	extra := model.Holiday{Date: model.MustDate(2025, time.August, 12), Description: "Feriado local"}
	if err := svc.AddHoliday(ctx, extra); err != nil {
		t.Fatal(err)
	}
	stored, _ := mem.ListHolidays(ctx)
	if len(stored) != len(all)+1 {
		t.Errorf("first edit should seed defaults: got %d, want %d", len(stored), len(all)+1)
	}
	if err := svc.AddHoliday(ctx, extra); !errors.Is(err, model.ErrDuplicateHoliday) {
		t.Errorf("got %v, want ErrDuplicateHoliday", err)
	}

	// a Tuesday that is now a holiday takes the surcharge
	res, err := svc.Process(ctx, Input{
		Sheet:  visitSheet([]string{"12/08/2025", "10:00", "P1", "", "Ana", "A"}),
		Period: aug, DryRun: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rated[0].Surcharge || !res.Rated[0].Amount.Equal(decimal.NewFromInt(36000)) {
		t.Errorf("rated: surcharge=%v amount=%s", res.Rated[0].Surcharge, res.Rated[0].Amount)
	}

	if ok, _ := svc.RemoveHoliday(ctx, extra.Date); !ok {
		t.Error("remove should report true")
	}
	n, err := svc.RestoreDefaultHolidays(ctx)
	if err != nil || n != len(all) {
		t.Errorf("restore: %d, %v", n, err)
	}
}

func TestHolidays_EmptiedCalendarStaysEmpty(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	all, err := svc.Holidays(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range all {
		if ok, err := svc.RemoveHoliday(ctx, h.Date); err != nil || !ok {
			t.Fatalf("remove %s: %v, %v", h.Date, ok, err)
		}
	}

	left, err := svc.Holidays(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("got %d holidays after removing all, want 0", len(left))
	}

	if _, err := svc.RestoreDefaultHolidays(ctx); err != nil {
		t.Fatal(err)
	}
	if back, _ := svc.Holidays(ctx); len(back) != len(all) {
		t.Errorf("restore: got %d, want %d", len(back), len(all))
	}
}

func TestSequenceNumber(t *testing.T) {
	mem := store.NewMemory()
	svc := New(mem, logging.Setup("text", "error"), Options{
		Sequence: config.SequenceRef{Month: 8, Year: 2025, Number: 401},
	})
	ctx := context.Background()

	cases := map[model.Period]int{
		aug:               401,
		aug.AddMonths(5):  406,
		aug.AddMonths(-1): 400,
	}
	for p, want := range cases {
		if got, _ := svc.SequenceNumber(ctx, p); got != want {
			t.Errorf("%s: got %d, want %d", p, got, want)
		}
	}

	if err := svc.SetSequenceNumber(ctx, aug, 500); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.SequenceNumber(ctx, aug); got != 500 {
		t.Errorf("override: got %d", got)
	}
	if err := svc.SetSequenceNumber(ctx, aug, 0); !model.IsValidation(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestStaffReports(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	if err := svc.SaveStaff(ctx, model.StaffMember{Name: " Pérez Ana ", License: "MP 1234", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveStaff(ctx, model.StaffMember{Name: "  "}); !model.IsValidation(err) {
		t.Errorf("blank name: got %v, want validation error", err)
	}

	res, err := svc.Process(ctx, Input{
		Sheet: visitSheet(
			[]string{"12/08/2025", "", "P1", "", "Pérez Ana", "A"},
			[]string{"12/08/2025", "", "P2", "", "Gómez Luis", "B"},
		),
		Period: aug, DryRun: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	reports, err := svc.StaffReports(ctx, res, aug)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports", len(reports))
	}
	if reports[0].Staff != "Gómez Luis" || reports[0].License != "" {
		t.Errorf("first report: %+v", reports[0])
	}
	if reports[1].License != "MP 1234" || reports[1].Sequence != 401 || len(reports[1].Lines) != 1 {
		t.Errorf("second report: %+v", reports[1])
	}
}

func TestImportReference(t *testing.T) {
	svc, mem := seededService(t)
	ctx := context.Background()
	header := []string{"Código", "Procedimiento", "Complejidad", "Valor anterior", "Valor"}
	sheet := &model.Sheet{Header: header}
	for i, cells := range [][]string{
		{"030101", "APENDICECTOMIA", "C3", "900", "1.000,50"},
		{"030102", "COLECISTECTOMIA", "C3", "", "1.000,50"},
		{"", "SIN CODIGO", "", "", ""},
		{"030101", "APENDICECTOMIA LAPAROSCOPICA", "C3", "", ""},
	} {
		r := model.RawVisitRow{Index: i + 2, Cells: map[string]string{}}
		for j, v := range cells {
			r.Cells[header[j]] = v
		}
		sheet.Rows = append(sheet.Rows, r)
	}

	sep := aug.AddMonths(1)
	res, err := svc.ImportReference(ctx, sheet, sep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Procedures != 2 || res.Prices != 1 || res.Skipped != 1 {
		t.Errorf("got %+v", res)
	}
	prices, _ := mem.ListPrices(ctx, sep)
	if len(prices) != 1 || !prices[0].UnitPrice.Equal(decimal.RequireFromString("1000.50")) {
		t.Errorf("prices: %+v", prices)
	}
	entries, _ := mem.ListActiveProcedures(ctx)
	for _, e := range entries {
		if e.Code == "030101" && e.Description != "APENDICECTOMIA LAPAROSCOPICA" {
			t.Errorf("duplicate code should keep the last row, got %q", e.Description)
		}
	}
}
