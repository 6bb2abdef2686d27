package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

var (
	// yyyy-mm-dd, optionally followed by a time part.
	isoDate = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:$|[T\s])`)
	// dd/mm/yyyy, dd-mm-yy, dd.mm.yyyy. Day always comes first.
	dmyDate   = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2}|\d{4})(?:$|\s)`)
	clockText = regexp.MustCompile(`(?:^|[^\d])(\d{1,2}):(\d{2})`)
)

// excelEpoch is day zero of the 1900 date system (Lotus leap-year bug included).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial numbers outside this window are not treated as dates (1927..2173).
const (
	minExcelSerial = 10000
	maxExcelSerial = 100000
)

// ParseDate parses the date formats seen in visit exports into a civil date.
// Slash and dash forms are always read day first; ISO is read year first;
// bare numbers are Excel serials. Returns false when nothing matches.
func ParseDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, false
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return civil(m[1], m[2], m[3])
	}
	if m := dmyDate.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return civil(year, m[2], m[1])
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ExcelSerialDate(f)
	}
	return model.Date{}, false
}

// ExcelSerialDate converts a spreadsheet serial (days since 1899-12-30) to a
// date, ignoring any time fraction.
func ExcelSerialDate(serial float64) (model.Date, bool) {
	if math.IsNaN(serial) || serial < minExcelSerial || serial > maxExcelSerial {
		return model.Date{}, false
	}
	days := int(math.Floor(serial))
	return model.DateOf(excelEpoch.AddDate(0, 0, days)), true
}

func civil(ys, ms, ds string) (model.Date, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return model.Date{}, false
	}
	return model.NewDate(y, time.Month(m), d)
}

// ParseClock reads a time of day from "H:MM", "HH:MM:SS", a date-time string
// or a spreadsheet day fraction ("0.5625" is 13:30).
func ParseClock(s string) (*model.Clock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if m := clockText.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h > 23 || mm > 59 {
			return nil, false
		}
		return &model.Clock{Hour: h, Minute: mm}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return nil, false
	}
	whole, frac := math.Modf(f)
	if whole >= 1 && frac == 0 {
		// a bare date serial carries no time
		return nil, false
	}
	// round to the second, then truncate to the minute like the text form
	minutes := int(math.Round(frac*86400)) / 60
	if minutes >= 24*60 {
		minutes = 24*60 - 1
	}
	return &model.Clock{Hour: minutes / 60, Minute: minutes % 60}, true
}
