package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

func visitSheet(header []string, rows ...map[string]string) *model.Sheet {
	s := &model.Sheet{Name: "Hoja1", Header: header}
	for i, cells := range rows {
		s.Rows = append(s.Rows, model.RawVisitRow{Index: i + 2, Cells: cells})
	}
	return s
}

func TestLines_RowExplosionKeepsOrder(t *testing.T) {
	header := []string{"Fecha de visita", "Hora", "Paciente", "Procedimiento quirúrgico 2",
		"Procedimiento Quirúrgico", "Instrumentador/a"}
	sheet := visitSheet(header, map[string]string{
		"Fecha de visita":            "16/08/2025",
		"Hora":                       "10:15",
		"Paciente":                   "GOMEZ, JUAN",
		"Procedimiento Quirúrgico":   "100-FOO",
		"Procedimiento quirúrgico 2": "100-FOO 2: 200-BAR",
		"Instrumentador/a":           "Lopez Maria",
	})

	res, err := Lines(sheet, DefaultMapping())
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(res.Lines))
	}
	for i, l := range res.Lines {
		if l.Position != i {
			t.Errorf("line %d: position %d", i, l.Position)
		}
		if l.Code != "100" {
			t.Errorf("line %d: code %q, want 100", i, l.Code)
		}
	}
	if res.Lines[0].Description != "FOO" || res.Lines[1].Description != "FOO 2: 200-BAR" {
		t.Errorf("descriptions out of order: %q, %q", res.Lines[0].Description, res.Lines[1].Description)
	}
	wantCols := []string{"Procedimiento Quirúrgico", "Procedimiento quirúrgico 2"}
	if !reflect.DeepEqual(res.ProcedureColumns, wantCols) {
		t.Errorf("procedure columns: got %v, want %v", res.ProcedureColumns, wantCols)
	}
	if res.Lines[0].Date != model.MustDate(2025, time.August, 16) {
		t.Errorf("date: got %v", res.Lines[0].Date)
	}
	if res.Lines[0].TimeString() != "10:15" {
		t.Errorf("time: got %q", res.Lines[0].TimeString())
	}
}

func TestLines_DropsRows(t *testing.T) {
	header := []string{"FECHA", "Procedimiento quirurgico", "INSTRUMENTADOR", "Obra Social"}
	sheet := visitSheet(header,
		map[string]string{"FECHA": "2025-08-01", "Procedimiento quirurgico": "1 - A", "INSTRUMENTADOR": ""},
		map[string]string{"FECHA": "2025-08-01", "Procedimiento quirurgico": "1 - A", "INSTRUMENTADOR": "sin instrumentador"},
		map[string]string{"FECHA": "2025-08-01", "Procedimiento quirurgico": "", "INSTRUMENTADOR": "Ana"},
		map[string]string{"FECHA": "2025-08-01", "Procedimiento quirurgico": "1 - A", "INSTRUMENTADOR": " Ana  Ruiz ", "Obra Social": "OSDE 210"},
		map[string]string{"FECHA": "pendiente", "Procedimiento quirurgico": "2 - B", "INSTRUMENTADOR": "Ana Ruiz"},
	)

	res, err := Lines(sheet, DefaultMapping())
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if res.RowsRead != 5 || res.RowsNoStaff != 2 || res.RowsNoProcedure != 1 {
		t.Errorf("counters: read=%d noStaff=%d noProc=%d", res.RowsRead, res.RowsNoStaff, res.RowsNoProcedure)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(res.Lines))
	}
	if res.Lines[0].Staff != "Ana Ruiz" {
		t.Errorf("staff not collapsed: %q", res.Lines[0].Staff)
	}
	if res.Lines[0].Payer != "OSDE 210" {
		t.Errorf("payer: got %q", res.Lines[0].Payer)
	}
	if res.Undated != 1 || !res.Lines[1].Date.IsZero() || res.Lines[1].DateRaw != "pendiente" {
		t.Errorf("undated line not kept with raw date: %+v", res.Lines[1])
	}
}

func TestLines_FirstNonEmptyVariantWins(t *testing.T) {
	header := []string{"Fecha", "Fecha de visita", "Procedimiento Quirurgico", "Instrumentador"}
	sheet := visitSheet(header, map[string]string{
		"Fecha":                    "01/08/2025",
		"Fecha de visita":          "",
		"Procedimiento Quirurgico": "A",
		"Instrumentador":           "Ana",
	})
	res, err := Lines(sheet, DefaultMapping())
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if res.Lines[0].Date != model.MustDate(2025, time.August, 1) {
		t.Errorf("got %v, want fallback to Fecha", res.Lines[0].Date)
	}
}

func TestLines_InputFormatErrors(t *testing.T) {
	t.Run("no procedure columns", func(t *testing.T) {
		sheet := visitSheet([]string{"Fecha", "Paciente"}, map[string]string{"Fecha": "01/08/2025"})
		_, err := Lines(sheet, DefaultMapping())
		var ie *model.InputFormatError
		if !errors.As(err, &ie) {
			t.Fatalf("got %v, want InputFormatError", err)
		}
		if !reflect.DeepEqual(ie.Columns, []string{"Fecha", "Paciente"}) {
			t.Errorf("columns: got %v", ie.Columns)
		}
	})
	t.Run("no header", func(t *testing.T) {
		if _, err := Lines(&model.Sheet{}, DefaultMapping()); !model.IsInputFormat(err) {
			t.Fatalf("got %v, want InputFormatError", err)
		}
	})
	t.Run("rows without usable lines", func(t *testing.T) {
		sheet := visitSheet([]string{"Procedimiento quirurgico", "Instrumentador"},
			map[string]string{"Procedimiento quirurgico": "1 - A", "Instrumentador": ""})
		if _, err := Lines(sheet, DefaultMapping()); !model.IsInputFormat(err) {
			t.Fatalf("got %v, want InputFormatError", err)
		}
	})
}

func TestReferenceRows(t *testing.T) {
	sheet := visitSheet([]string{"Código", "Descripción", "Complejidad", "Valor anterior", "Valor"},
		map[string]string{"Código": "150101", "Descripción": "COLECISTECTOMIA", "Complejidad": "3", "Valor anterior": "1", "Valor": "$ 30.000,50"},
		map[string]string{"Código": "0138", "Descripción": "ARTROSCOPIA", "Valor": ""},
		map[string]string{"Código": "", "Descripción": "SIN CODIGO"},
	)
	res, err := ReferenceRows(sheet)
	if err != nil {
		t.Fatalf("ReferenceRows: %v", err)
	}
	if len(res.Rows) != 2 || res.Skipped != 1 {
		t.Fatalf("got %d rows, %d skipped", len(res.Rows), res.Skipped)
	}
	first := res.Rows[0]
	if !first.HasPrice || first.Price.String() != "30000.5" {
		t.Errorf("price: got %v (has=%v)", first.Price, first.HasPrice)
	}
	if first.Entry.Complexity != "3" || !first.Entry.Active {
		t.Errorf("entry: %+v", first.Entry)
	}
	if res.Rows[1].HasPrice {
		t.Error("empty price should not be set")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct{ in, want string }{
		{"30000", "30000"},
		{"30000.5", "30000.5"},
		{"30.000", "30000"},
		{"1.234.567,89", "1234567.89"},
		{"1,234,567.89", "1234567.89"},
		{"$ 18.000,00", "18000"},
		{"12,5", "12.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Error("expected error")
	}
}
