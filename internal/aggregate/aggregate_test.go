package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

func rated(staff, amount string) model.RatedLine {
	return model.RatedLine{
		ProcedureLine: model.ProcedureLine{Staff: staff},
		Amount:        decimal.RequireFromString(amount),
	}
}

func TestSummarize(t *testing.T) {
	lines := []model.RatedLine{
		rated("Ñandú Pérez", "100"),
		rated("Ana", "30000"),
		rated("Zoe", "5"),
		rated("Ana", "9000"),
		rated("Nora", "1"),
	}
	rows := Summarize(lines)
	wantOrder := []string{"Ana", "Nora", "Ñandú Pérez", "Zoe"}
	if len(rows) != len(wantOrder) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantOrder))
	}
	for i, name := range wantOrder {
		if rows[i].Staff != name {
			t.Errorf("row %d: got %q, want %q", i, rows[i].Staff, name)
		}
	}
	if rows[0].Count != 2 || !rows[0].Total.Equal(decimal.NewFromInt(39000)) {
		t.Errorf("Ana: count %d total %s", rows[0].Count, rows[0].Total)
	}
}

func TestTotals(t *testing.T) {
	lines := []model.RatedLine{rated("Ana", "30000"), rated("Ana", "9000")}
	missing := []model.MissingLine{{Code: "C", Occurrences: 3}}
	got := Totals(lines, missing)
	if got.ProcedureCount != 2 || !got.TotalAmount.Equal(decimal.NewFromInt(39000)) || got.MissingCount != 1 {
		t.Errorf("got %+v", got)
	}

	empty := Totals(nil, nil)
	if !empty.TotalAmount.IsZero() || empty.ProcedureCount != 0 {
		t.Errorf("empty: %+v", empty)
	}
}

func TestForStaff(t *testing.T) {
	lines := []model.RatedLine{rated("Ana", "1"), rated("Luis", "2"), rated("Ana", "3")}
	got := ForStaff(lines, "Ana")
	if len(got) != 2 || got[1].Amount.String() != "3" {
		t.Errorf("got %+v", got)
	}
}
