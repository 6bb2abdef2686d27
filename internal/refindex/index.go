// Package refindex builds the immutable lookup structure over the procedure
// reference table used by the rating engine.
package refindex

import (
	"sync"

	"github.com/schollz/closestmatch"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// Index resolves procedure lines against active reference entries. It is
// safe for concurrent use once built.
type Index struct {
	byExactCode      map[string]model.ReferenceEntry
	byNormalizedCode map[string]model.ReferenceEntry
	byFingerprint    map[string]model.ReferenceEntry
	size             int

	suggestOnce sync.Once
	suggester   *closestmatch.ClosestMatch
}

// Build indexes every active entry. On key collisions the later entry wins.
func Build(entries []model.ReferenceEntry) *Index {
	ix := &Index{
		byExactCode:      make(map[string]model.ReferenceEntry, len(entries)),
		byNormalizedCode: make(map[string]model.ReferenceEntry, len(entries)),
		byFingerprint:    make(map[string]model.ReferenceEntry, len(entries)),
	}
	for _, e := range entries {
		if !e.Active {
			continue
		}
		e.Code = normalize.CanonicalCode(e.Code)
		if e.Code == "" {
			continue
		}
		ix.size++
		ix.byExactCode[e.Code] = e
		if k := normalize.NormalizeCode(e.Code); k != "" {
			ix.byNormalizedCode[k] = e
		}
		if k := normalize.Fingerprint(e.Description); k != "" {
			ix.byFingerprint[k] = e
		}
	}
	return ix
}

// Len is the number of indexed entries.
func (ix *Index) Len() int {
	return ix.size
}

// Lookup tries exact code, then normalized code, then description fingerprint.
func (ix *Index) Lookup(code, description string) (model.ReferenceEntry, model.MatchStrategy, bool) {
	if e, ok := ix.byExactCode[normalize.CanonicalCode(code)]; ok {
		return e, model.MatchExactCode, true
	}
	if k := normalize.NormalizeCode(code); k != "" {
		if e, ok := ix.byNormalizedCode[k]; ok {
			return e, model.MatchNormalizedCode, true
		}
	}
	if k := normalize.Fingerprint(description); k != "" {
		if e, ok := ix.byFingerprint[k]; ok {
			return e, model.MatchFingerprint, true
		}
	}
	return model.ReferenceEntry{}, "", false
}

// Suggest returns the entry whose description is closest to description.
// It is a hint for people resolving missing codes and never used for rating.
func (ix *Index) Suggest(description string) (model.ReferenceEntry, bool) {
	key := normalize.Fingerprint(description)
	if key == "" || len(ix.byFingerprint) == 0 {
		return model.ReferenceEntry{}, false
	}
	ix.suggestOnce.Do(func() {
		keys := make([]string, 0, len(ix.byFingerprint))
		for k := range ix.byFingerprint {
			keys = append(keys, k)
		}
		ix.suggester = closestmatch.New(keys, []int{3, 4})
	})
	match := ix.suggester.Closest(key)
	if match == "" {
		return model.ReferenceEntry{}, false
	}
	e, ok := ix.byFingerprint[match]
	return e, ok
}
