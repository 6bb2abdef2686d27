package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

type priceKey struct {
	complexity string
	period     string
}

// Memory is an in-process store with the same semantics as PG. It backs
// tests and dry runs without a database.
type Memory struct {
	mu         sync.Mutex
	procedures map[string]model.ReferenceEntry
	prices     map[priceKey]model.PriceEntry
	runs       []memoryRun
	resolved   map[string]string
	holidays   map[model.Date]string
	seeded     bool
	staff      map[string]model.StaffMember
	sequence   map[string]int
	now        func() time.Time
}

type memoryRun struct {
	run   model.BatchRun
	lines []model.RatedLine
	open  map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		procedures: make(map[string]model.ReferenceEntry),
		prices:     make(map[priceKey]model.PriceEntry),
		resolved:   make(map[string]string),
		holidays:   make(map[model.Date]string),
		staff:      make(map[string]model.StaffMember),
		sequence:   make(map[string]int),
		now:        time.Now,
	}
}

func (m *Memory) ListActiveProcedures(_ context.Context) ([]model.ReferenceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ReferenceEntry, 0, len(m.procedures))
	for _, e := range m.procedures {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *Memory) ListPrices(_ context.Context, p model.Period) ([]model.PriceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PriceEntry
	for k, e := range m.prices {
		if k.period == p.Key() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Complexity < out[j].Complexity })
	return out, nil
}

func (m *Memory) UpsertProcedure(_ context.Context, e model.ReferenceEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertProcedure(e), nil
}

func (m *Memory) upsertProcedure(e model.ReferenceEntry) bool {
	prev, exists := m.procedures[e.Code]
	switch {
	case e.Description != "":
	case exists:
		e.Description = prev.Description
	default:
		e.Description = e.Code
	}
	e.Complexity = model.ComplexityDisplay(model.ComplexityKey(e.Complexity))
	e.Active = true
	m.procedures[e.Code] = e
	return !exists
}

func (m *Memory) UpsertPrice(_ context.Context, p model.PriceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertPrice(p)
	return nil
}

func (m *Memory) upsertPrice(p model.PriceEntry) {
	p.Complexity = model.ComplexityKey(p.Complexity)
	m.prices[priceKey{complexity: p.Complexity, period: p.Period.Key()}] = p
}

func (m *Memory) InsertPrices(_ context.Context, prices []model.PriceEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range prices {
		m.upsertPrice(p)
	}
	return int64(len(prices)), nil
}

func (m *Memory) InsertProcedures(_ context.Context, entries []model.ReferenceEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.upsertProcedure(e)
	}
	return int64(len(entries)), nil
}

func (m *Memory) InsertBatchRun(_ context.Context, run *model.BatchRun, rated []model.RatedLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.CreatedAt = m.now()
	open := make(map[string]bool, len(run.Missing))
	for _, ml := range run.Missing {
		open[ml.Code] = true
	}
	m.runs = append(m.runs, memoryRun{
		run:   *run,
		lines: append([]model.RatedLine(nil), rated...),
		open:  open,
	})
	return nil
}

func (m *Memory) ListBatchRuns(_ context.Context, p model.Period) ([]model.BatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BatchRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].run.Period.Key() == p.Key() {
			out = append(out, m.runs[i].run)
		}
	}
	return out, nil
}

func (m *Memory) MarkMissingResolved(_ context.Context, code, complexity string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.runs {
		if r.open[code] {
			r.open[code] = false
			n++
		}
	}
	m.resolved[code] = complexity
	return n, nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]model.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Holiday, 0, len(m.holidays))
	for d, desc := range m.holidays {
		out = append(out, model.Holiday{Date: d, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) AddHoliday(_ context.Context, h model.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[h.Date]; ok {
		return model.ErrDuplicateHoliday
	}
	m.holidays[h.Date] = h.Description
	return nil
}

func (m *Memory) RemoveHoliday(_ context.Context, d model.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.holidays[d]
	delete(m.holidays, d)
	return ok, nil
}

func (m *Memory) ReplaceHolidays(_ context.Context, holidays []model.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays = make(map[model.Date]string, len(holidays))
	for _, h := range holidays {
		m.holidays[h.Date] = h.Description
	}
	m.seeded = true
	return nil
}

func (m *Memory) HolidaysSeeded(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seeded, nil
}

func (m *Memory) LookupStaffLicense(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[strings.ToLower(name)]
	if !ok || !s.Active {
		return "", false, nil
	}
	return s.License, true, nil
}

func (m *Memory) UpsertStaff(_ context.Context, s model.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[strings.ToLower(s.Name)] = s
	return nil
}

func (m *Memory) GetSequenceNumber(_ context.Context, p model.Period) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.sequence[p.Key()]
	return n, ok, nil
}

func (m *Memory) SetSequenceNumber(_ context.Context, p model.Period, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence[p.Key()] = n
	return nil
}

// ResolvedComplexity returns the complexity recorded for a resolved code.
func (m *Memory) ResolvedComplexity(code string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.resolved[code]
	return c, ok
}

// Lines returns the rated lines persisted with a run.
func (m *Memory) Lines(runIndex int) []model.RatedLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if runIndex < 0 || runIndex >= len(m.runs) {
		return nil
	}
	return m.runs[runIndex].lines
}
