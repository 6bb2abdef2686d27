package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

// Field is a logical column of a visit row.
type Field string

const (
	FieldDate    Field = "date"
	FieldTime    Field = "time"
	FieldPatient Field = "patient"
	FieldSurgeon Field = "surgeon"
	FieldStaff   Field = "staff"
	FieldPayer   Field = "payer"
)

// Fields lists every logical field in resolution order.
var Fields = []Field{FieldDate, FieldTime, FieldPatient, FieldSurgeon, FieldStaff, FieldPayer}

// Mapping tells the row normalizer how to find each logical field.
type Mapping struct {
	// Variants are accepted column names per field, in priority order.
	Variants map[Field][]string
	// ProcedureKeywords must all appear in a header for it to be a procedure column.
	ProcedureKeywords []string
	// NoStaff is the placeholder exporters write when a visit had no staff member.
	NoStaff string
}

// DefaultMapping is the column layout of the hospital's visit export.
func DefaultMapping() Mapping {
	return Mapping{
		Variants: map[Field][]string{
			FieldDate: {"Fecha de visita", "Fecha Visita", "Fecha", "Fecha de Cirugía", "Fecha Cirugía",
				"Fecha Procedimiento"},
			FieldTime: {"Hora de comienzo", "Hora", "Hora de visita", "Hora Visita", "Hora de Cirugía",
				"Hora Finalización"},
			FieldPatient: {"Paciente", "Nombre", "Nombre Paciente", "Paciente Nombre"},
			FieldSurgeon: {"Cirujano", "Médico", "Doctor", "Cirujano Principal", "Médico Cirujano"},
			FieldStaff:   {"Instrumentador/a", "Instrumentador", "Instrumentadora", "Instrumentista"},
			FieldPayer:   {"Cliente", "Obra Social", "ObraSocial", "Obra_Social"},
		},
		ProcedureKeywords: []string{"procedimiento", "quirurgico"},
		NoStaff:           "SIN INSTRUMENTADOR",
	}
}

// LinesResult is the output of Lines plus the counters the pipeline logs.
type LinesResult struct {
	Lines            []model.ProcedureLine
	ProcedureColumns []string
	RowsRead         int
	RowsNoStaff      int
	RowsNoProcedure  int
	Undated          int
}

var trailingNumber = regexp.MustCompile(`(\d+)\D*$`)

// Lines explodes visit rows into one ProcedureLine per procedure cell.
func Lines(sheet *model.Sheet, m Mapping) (*LinesResult, error) {
	if sheet == nil || len(sheet.Header) == 0 {
		return nil, &model.InputFormatError{Reason: "no header row found"}
	}

	procCols := ProcedureColumns(sheet.Header, m.ProcedureKeywords)
	if len(procCols) == 0 {
		return nil, &model.InputFormatError{
			Reason:  fmt.Sprintf("no procedure columns (headers containing %s)", strings.Join(m.ProcedureKeywords, " + ")),
			Columns: sheet.Header,
		}
	}

	fieldCols := make(map[Field][]string, len(Fields))
	for _, f := range Fields {
		fieldCols[f] = matchColumns(sheet.Header, m.Variants[f])
	}

	res := &LinesResult{ProcedureColumns: procCols}
	noStaff := CanonicalCode(m.NoStaff)

	for _, row := range sheet.Rows {
		res.RowsRead++

		staff := CollapseSpaces(firstValue(row, fieldCols[FieldStaff]))
		if staff == "" || (noStaff != "" && strings.ToUpper(staff) == noStaff) {
			res.RowsNoStaff++
			continue
		}

		dateRaw := firstValue(row, fieldCols[FieldDate])
		date, dated := ParseDate(dateRaw)
		clock, _ := ParseClock(firstValue(row, fieldCols[FieldTime]))

		base := model.ProcedureLine{
			SourceRow: row.Index,
			Date:      date,
			DateRaw:   dateRaw,
			Time:      clock,
			Patient:   CollapseSpaces(firstValue(row, fieldCols[FieldPatient])),
			Surgeon:   CollapseSpaces(firstValue(row, fieldCols[FieldSurgeon])),
			Staff:     staff,
			Payer:     CollapseSpaces(firstValue(row, fieldCols[FieldPayer])),
		}

		position := 0
		for _, col := range procCols {
			cell := row.Get(col)
			if cell == "" {
				continue
			}
			code, desc := SplitCodeDescription(cell)
			code = CanonicalCode(code)
			if code == "" {
				continue
			}
			if desc == "" {
				desc = code
			}
			line := base
			line.Code = code
			line.Description = desc
			line.Position = position
			position++
			res.Lines = append(res.Lines, line)
			if !dated {
				res.Undated++
			}
		}
		if position == 0 {
			res.RowsNoProcedure++
		}
	}

	if res.RowsRead > 0 && len(res.Lines) == 0 {
		return nil, &model.InputFormatError{
			Reason:  fmt.Sprintf("%d rows read but none produced a procedure line with a code and staff member", res.RowsRead),
			Columns: sheet.Header,
		}
	}
	return res, nil
}

// ProcedureColumns returns every header containing all keywords, ordered by
// trailing numeral. Headers without a numeral count as 1; ties keep sheet order.
func ProcedureColumns(header []string, keywords []string) []string {
	type col struct {
		name string
		num  int
	}
	var cols []col
	for _, h := range header {
		key := HeaderKey(h)
		if key == "" {
			continue
		}
		matched := len(keywords) > 0
		for _, kw := range keywords {
			if !strings.Contains(key, HeaderKey(kw)) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		num := 1
		if m := trailingNumber.FindStringSubmatch(h); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				num = n
			}
		}
		cols = append(cols, col{name: h, num: num})
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].num < cols[j].num })

	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// matchColumns returns the headers matching variants, in variant order.
func matchColumns(header []string, variants []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range variants {
		vk := HeaderKey(v)
		for _, h := range header {
			if !seen[h] && HeaderKey(h) == vk {
				out = append(out, h)
				seen[h] = true
			}
		}
	}
	return out
}

func firstValue(row model.RawVisitRow, cols []string) string {
	for _, c := range cols {
		if v := row.Get(c); v != "" {
			return v
		}
	}
	return ""
}
