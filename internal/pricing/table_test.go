package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

func price(complexity string, p model.Period, v string) model.PriceEntry {
	return model.PriceEntry{Complexity: complexity, Period: p, UnitPrice: decimal.RequireFromString(v)}
}

func TestBuildScopesToPeriod(t *testing.T) {
	aug := model.NewPeriod(8, 2025, "", "")
	jul := aug.Previous()
	other := model.NewPeriod(8, 2025, "SWISS", "")

	tbl := Build(aug, []model.PriceEntry{
		price("X", aug, "30000"),
		price(model.NoComplexity, aug, "18000"),
		price("X", jul, "25000"),
		price("Y", other, "1"),
	})
	if tbl.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", tbl.Len())
	}
	if p, ok := tbl.Lookup("X"); !ok || !p.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("X: got %s (ok=%v)", p, ok)
	}
	if p, ok := tbl.Lookup(""); !ok || !p.Equal(decimal.NewFromInt(18000)) {
		t.Errorf("no complexity: got %s (ok=%v)", p, ok)
	}
	if _, ok := tbl.Lookup("Y"); ok {
		t.Error("price from another payer leaked into the table")
	}
}

func TestCopyForward(t *testing.T) {
	jul := model.NewPeriod(7, 2025, "", "")
	aug := model.NewPeriod(8, 2025, "", "")
	src := []model.PriceEntry{price("2", jul, "1000.10"), price("", jul, "333.33")}

	same, err := CopyForward(src, aug, decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if same[0].Period != aug || same[0].Complexity != "2" || same[0].UnitPrice.String() != "1000.1" {
		t.Errorf("plain copy: %+v", same[0])
	}

	raised, err := CopyForward(src, aug, decimal.RequireFromString("12.5"))
	if err != nil {
		t.Fatal(err)
	}
	// 1000.10 * 1.125 = 1125.1125, 333.33 * 1.125 = 374.99625
	want := map[string]string{"2": "1125.11", model.NoComplexity: "375"}
	for _, e := range raised {
		if e.UnitPrice.String() != want[e.Complexity] {
			t.Errorf("%s: got %s, want %s", e.Complexity, e.UnitPrice, want[e.Complexity])
		}
	}

	_, err = CopyForward(src, aug, decimal.NewFromInt(-100))
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "percentage" {
		t.Errorf("got %v, want percentage validation error", err)
	}
}
