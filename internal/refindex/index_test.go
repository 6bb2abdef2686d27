package refindex

import (
	"testing"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

func entry(code, desc, complexity string) model.ReferenceEntry {
	return model.ReferenceEntry{Code: code, Description: desc, Complexity: complexity, Active: true}
}

func TestLookupPrecedence(t *testing.T) {
	ix := Build([]model.ReferenceEntry{
		entry("A1", "ARTROSCOPIA DE RODILLA", "2"),
		entry("B7", "COLECISTECTOMIA", "3"),
	})

	// The text matches B7's fingerprint but the exact code A1 must win.
	e, strategy, ok := ix.Lookup("A1", "Colecistectomía")
	if !ok || e.Code != "A1" || strategy != model.MatchExactCode {
		t.Errorf("got %s via %s (ok=%v), want A1 via exact code", e.Code, strategy, ok)
	}

	e, strategy, ok = ix.Lookup("ZZ9", "colecistectomia")
	if !ok || e.Code != "B7" || strategy != model.MatchFingerprint {
		t.Errorf("got %s via %s, want B7 via description", e.Code, strategy)
	}

	if _, _, ok := ix.Lookup("ZZ9", "HERNIOPLASTIA"); ok {
		t.Error("unexpected match")
	}
}

func TestLookupNormalizedCode(t *testing.T) {
	ix := Build([]model.ReferenceEntry{
		entry("0138", "SUTURA", ""),
		entry("00", "CONSULTA", ""),
		entry("03.01.02", "ESCISION", ""),
	})
	tests := []struct {
		code, want string
		strategy   model.MatchStrategy
	}{
		{"0138", "0138", model.MatchExactCode},
		{" 0138 ", "0138", model.MatchExactCode},
		{"138", "0138", model.MatchNormalizedCode},
		{"0", "00", model.MatchNormalizedCode},
		{"030102", "03.01.02", model.MatchNormalizedCode},
		{"03-01-02", "03.01.02", model.MatchNormalizedCode},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e, strategy, ok := ix.Lookup(tt.code, "")
			if !ok || e.Code != tt.want || strategy != tt.strategy {
				t.Errorf("Lookup(%q) = %s via %s (ok=%v), want %s via %s", tt.code, e.Code, strategy, ok, tt.want, tt.strategy)
			}
		})
	}
}

func TestBuildSkipsInactiveAndLastWriteWins(t *testing.T) {
	inactive := entry("X1", "OBSOLETO", "")
	inactive.Active = false
	ix := Build([]model.ReferenceEntry{
		inactive,
		entry("P1", "Hernioplastia inguinal", "1"),
		entry("P2", "HERNIOPLASTIA  INGUINAL", "2"),
	})
	if ix.Len() != 2 {
		t.Errorf("Len: got %d, want 2", ix.Len())
	}
	if _, _, ok := ix.Lookup("X1", ""); ok {
		t.Error("inactive entry should not be indexed")
	}
	e, _, ok := ix.Lookup("none", "hernioplastia inguinal")
	if !ok || e.Code != "P2" {
		t.Errorf("fingerprint collision: got %s, want P2", e.Code)
	}
}

func TestSuggest(t *testing.T) {
	ix := Build([]model.ReferenceEntry{
		entry("A1", "ARTROSCOPIA DE RODILLA", ""),
		entry("B7", "COLECISTECTOMIA LAPAROSCOPICA", ""),
	})
	e, ok := ix.Suggest("colecistectomia laparosc")
	if !ok || e.Code != "B7" {
		t.Errorf("got %s (ok=%v), want B7", e.Code, ok)
	}
	if _, ok := Build(nil).Suggest("algo"); ok {
		t.Error("empty index should not suggest")
	}
}
