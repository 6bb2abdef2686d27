package sheet

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
	"github.com/lucasmmg12/liquidaciones-osde/internal/normalize"
)

// grid is one worksheet as raw cell text.
type grid struct {
	name string
	rows [][]string
}

// ReadFile reads the best-matching worksheet of an .xlsx or .xls file.
func ReadFile(path string, opts Options) (*model.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opts)
}

// Read parses a workbook from r. The file name only selects the decoder to try
// first; the other format is attempted when the first one fails.
func Read(r io.Reader, filename string, opts Options) (*model.Sheet, error) {
	opts = opts.withDefaults()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	var grids []grid
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		grids, err = readXLS(data)
		if err != nil {
			if alt, errX := readXLSX(data); errX == nil {
				grids, err = alt, nil
			}
		}
	} else {
		grids, err = readXLSX(data)
		if err != nil {
			if alt, errX := readXLS(data); errX == nil {
				grids, err = alt, nil
			}
		}
	}
	if err != nil {
		return nil, &model.InputFormatError{Reason: fmt.Sprintf("unsupported workbook %q: %v", filename, err)}
	}
	if len(grids) == 0 {
		return nil, &model.InputFormatError{Reason: "workbook has no sheets"}
	}

	g := pickSheet(grids, opts.SheetHints)
	headerIdx := DetectHeaderRow(g.rows, opts)
	return build(g, headerIdx), nil
}

// readXLSX returns raw cell values so dates arrive as serial numbers rather
// than locale-formatted strings.
func readXLSX(data []byte) ([]grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []grid
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		out = append(out, grid{name: name, rows: rows})
	}
	return out, nil
}

func readXLS(data []byte) ([]grid, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var out []grid
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sh, err := wb.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("read xls sheet %d: %w", i, err)
		}
		g := grid{name: sh.GetName()}
		for _, row := range sh.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			g.rows = append(g.rows, cells)
		}
		out = append(out, g)
	}
	return out, nil
}

// pickSheet returns the first sheet whose name contains any of hints, else
// the first sheet.
func pickSheet(grids []grid, hints []string) grid {
	for _, g := range grids {
		name := strings.ReplaceAll(normalize.HeaderKey(g.name), " ", "")
		for _, hint := range hints {
			if strings.Contains(name, normalize.HeaderKey(hint)) {
				return g
			}
		}
	}
	return grids[0]
}

// build turns the rows below headerIdx into RawVisitRows. Blank header cells
// are named "Columna N"; repeated names get a numeric suffix.
func build(g grid, headerIdx int) *model.Sheet {
	s := &model.Sheet{Name: g.name, HeaderRow: headerIdx}
	if headerIdx >= len(g.rows) {
		return s
	}

	used := make(map[string]bool)
	for i, cell := range g.rows[headerIdx] {
		name := normalize.CollapseSpaces(cell)
		if name == "" {
			name = fmt.Sprintf("Columna %d", i+1)
		}
		if used[name] {
			base := name
			for n := 2; used[name]; n++ {
				name = fmt.Sprintf("%s %d", base, n)
			}
		}
		used[name] = true
		s.Header = append(s.Header, name)
	}

	for i := headerIdx + 1; i < len(g.rows); i++ {
		cells := make(map[string]string, len(s.Header))
		blank := true
		for j, v := range g.rows[i] {
			if j >= len(s.Header) {
				break
			}
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			cells[s.Header[j]] = v
		}
		if blank {
			continue
		}
		s.Rows = append(s.Rows, model.RawVisitRow{Index: i + 1, Cells: cells})
	}
	return s
}
