package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

func TestMemory_UpsertProcedureKeepsDescription(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, _ := m.UpsertProcedure(ctx, model.ReferenceEntry{Code: "A1", Description: "APENDICECTOMIA", Complexity: "C3"})
	if !created {
		t.Error("first upsert should create")
	}
	created, _ = m.UpsertProcedure(ctx, model.ReferenceEntry{Code: "A1", Complexity: "C4"})
	if created {
		t.Error("second upsert should update")
	}

	entries, _ := m.ListActiveProcedures(ctx)
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Description != "APENDICECTOMIA" || entries[0].Complexity != "C4" {
		t.Errorf("got %+v", entries[0])
	}
}

func TestMemory_PricesScopedByPeriod(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	aug := model.NewPeriod(8, 2025, "", "")
	sep := aug.AddMonths(1)

	_, _ = m.InsertPrices(ctx, []model.PriceEntry{
		{Complexity: "C3", Period: aug, UnitPrice: decimal.NewFromInt(1000)},
		{Complexity: "", Period: aug, UnitPrice: decimal.NewFromInt(500)},
		{Complexity: "C3", Period: sep, UnitPrice: decimal.NewFromInt(1100)},
	})

	got, _ := m.ListPrices(ctx, aug)
	if len(got) != 2 {
		t.Fatalf("got %d prices for august", len(got))
	}
	if got[1].Complexity != model.NoComplexity {
		t.Errorf("blank complexity should be stored as %s, got %q", model.NoComplexity, got[1].Complexity)
	}
}

func TestMemory_MissingResolution(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	run := &model.BatchRun{
		ID:      uuid.New(),
		Period:  model.NewPeriod(8, 2025, "", ""),
		Missing: []model.MissingLine{{Code: "X9", Reason: model.NoReferenceMatch, Occurrences: 2}},
	}
	if err := m.InsertBatchRun(ctx, run, nil); err != nil {
		t.Fatal(err)
	}
	if run.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	n, _ := m.MarkMissingResolved(ctx, "X9", "C2")
	if n != 1 {
		t.Errorf("first resolution: got %d, want 1", n)
	}
	n, _ = m.MarkMissingResolved(ctx, "X9", "C2")
	if n != 0 {
		t.Errorf("second resolution: got %d, want 0", n)
	}
	if c, ok := m.ResolvedComplexity("X9"); !ok || c != "C2" {
		t.Errorf("resolved complexity: %q %v", c, ok)
	}
}

func TestMemory_Holidays(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	d := model.MustDate(2025, 12, 25)

	if err := m.AddHoliday(ctx, model.Holiday{Date: d, Description: "Navidad"}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddHoliday(ctx, model.Holiday{Date: d}); !errors.Is(err, model.ErrDuplicateHoliday) {
		t.Errorf("got %v, want ErrDuplicateHoliday", err)
	}
	if ok, _ := m.RemoveHoliday(ctx, d); !ok {
		t.Error("remove should report true")
	}
	if ok, _ := m.RemoveHoliday(ctx, d); ok {
		t.Error("second remove should report false")
	}
}

func TestMemory_StaffLookupIgnoresCase(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.UpsertStaff(ctx, model.StaffMember{Name: "Pérez Ana", License: "MP 1234", Active: true})
	_ = m.UpsertStaff(ctx, model.StaffMember{Name: "Gómez Luis", License: "MP 9", Active: false})

	if lic, ok, _ := m.LookupStaffLicense(ctx, "PÉREZ ANA"); !ok || lic != "MP 1234" {
		t.Errorf("got %q %v", lic, ok)
	}
	if _, ok, _ := m.LookupStaffLicense(ctx, "Gómez Luis"); ok {
		t.Error("inactive staff should not be found")
	}

	_ = m.UpsertStaff(ctx, model.StaffMember{Name: "pérez ana", License: "MP 5678", Active: true})
	if lic, _, _ := m.LookupStaffLicense(ctx, "Pérez Ana"); lic != "MP 5678" {
		t.Errorf("case-insensitive update: got %q, want MP 5678", lic)
	}
}
