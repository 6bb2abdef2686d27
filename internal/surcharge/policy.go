// Package surcharge decides whether a visit falls in the weekend/holiday
// premium window.
package surcharge

import (
	"sort"
	"time"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// SaturdayFrom is the first minute of the Saturday premium window.
var SaturdayFrom = model.Clock{Hour: 13, Minute: 0}

// HolidaySet maps each holiday to its description.
type HolidaySet map[model.Date]string

// NewHolidaySet indexes holidays by date. Later duplicates overwrite the description.
func NewHolidaySet(holidays []model.Holiday) HolidaySet {
	hs := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		if h.Date.IsZero() {
			continue
		}
		hs[h.Date] = h.Description
	}
	return hs
}

// Contains reports whether d is a holiday.
func (hs HolidaySet) Contains(d model.Date) bool {
	_, ok := hs[d]
	return ok
}

// List returns the set sorted by date.
func (hs HolidaySet) List() []model.Holiday {
	out := make([]model.Holiday, 0, len(hs))
	for d, desc := range hs {
		out = append(out, model.Holiday{Date: d, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Applies reports whether the premium applies: all day on holidays and
// Sundays, and on Saturdays from 13:00. A Saturday without a time does not
// qualify, nor does an unknown date.
func Applies(d model.Date, t *model.Clock, hs HolidaySet) bool {
	if d.IsZero() {
		return false
	}
	if hs.Contains(d) {
		return true
	}
	switch d.Weekday() {
	case time.Sunday:
		return true
	case time.Saturday:
		return t != nil && t.Minutes() >= SaturdayFrom.Minutes()
	}
	return false
}
