package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

func TestLoadRules_Defaults(t *testing.T) {
	r, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Sequence.Number != 401 || r.Sequence.Month != 8 || r.Sequence.Year != 2025 {
		t.Errorf("sequence: got %+v", r.Sequence)
	}
	m := r.Mapping()
	if m.NoStaff != "SIN INSTRUMENTADOR" {
		t.Errorf("no staff: got %q", m.NoStaff)
	}
	if got := m.Variants[normalize.FieldDate][0]; got != "Fecha de visita" {
		t.Errorf("first date variant: got %q", got)
	}
	if opts := r.SheetOptions(); opts.ScanRows != 50 || opts.MinHits != 3 {
		t.Errorf("sheet options: %+v", opts)
	}
}

func TestLoadRules_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `columns:
  staff: ["Técnico", "Instrumentador"]
no_staff: "NINGUNO"
sequence:
  month: 1
  year: 2026
  number: 406
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Columns["staff"]; len(got) != 2 || got[0] != "Técnico" {
		t.Errorf("staff variants: got %v", got)
	}
	if len(r.Columns["date"]) == 0 {
		t.Error("date variants should keep defaults")
	}
	if r.NoStaff != "NINGUNO" || r.Sequence.Number != 406 {
		t.Errorf("overrides not applied: %+v", r)
	}
}

func TestLoadRules_UnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("columns:\n  bogus: [\"x\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRules(path)
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("got %v, want unknown field error", err)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil || err.Error() != "--file is required" {
		t.Errorf("got %v", err)
	}

	path := filepath.Join(t.TempDir(), "visitas.xlsx")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg = &Config{FilePath: path, Month: 8, Year: 2025}
	if err := cfg.ValidateWithDSN(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("got %v, want DSN error", err)
	}
	cfg.DSN = "postgres://localhost/x"
	if err := cfg.ValidateWithDSN(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if p := cfg.Period(); p.Payer != "OSDE" || p.Module != "instrumentadores" {
		t.Errorf("period defaults: %+v", p)
	}

	cfg.Month = 13
	if err := cfg.ValidatePeriod(); err == nil {
		t.Error("expected month validation error")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("LOG_FORMAT", "json")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.DatabaseURL != "postgres://env/db" || env.LogFormat != "json" {
		t.Errorf("got %+v", env)
	}
	if env.DefaultPayer != "OSDE" || env.Port != "8080" {
		t.Errorf("defaults: %+v", env)
	}
}
