package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/lucasmmg12/liquidaciones-osde/internal/model"
)

const readBatchSize = 512

// Write stores rated lines in input order, numbered from 1.
func Write(path string, batchID uuid.UUID, rated []model.RatedLine) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	w := parquet.NewGenericWriter[Row](f)
	rows := make([]Row, len(rated))
	for i := range rated {
		rows[i] = fromRated(batchID, i+1, &rated[i])
	}
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write archive rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close archive writer: %w", err)
	}
	return f.Close()
}

// Reader streams Rows back from an archive file.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[Row]
}

// Open opens an archive for streaming.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{file: f, reader: parquet.NewGenericReader[Row](pf)}, nil
}

func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records. Returns io.EOF when done.
func (r *Reader) Read(rows []Row) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read archive rows: %w", err)
	}
	return n, err
}

func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Stats summarizes an archive.
type Stats struct {
	BatchRunID string
	Lines      int64
	Surcharged int64
	Total      decimal.Decimal
	ByStaff    map[string]int64
}

// Inspect reads a whole archive and totals it.
func Inspect(path string) (*Stats, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	st := &Stats{Total: decimal.Zero, ByStaff: make(map[string]int64)}
	buf := make([]Row, readBatchSize)
	for {
		n, readErr := r.Read(buf)
		for i := 0; i < n; i++ {
			row := &buf[i]
			amount, err := row.AmountValue()
			if err != nil {
				return nil, err
			}
			st.BatchRunID = row.BatchRunID
			st.Lines++
			st.Total = st.Total.Add(amount)
			st.ByStaff[row.Staff]++
			if row.Surcharge {
				st.Surcharged++
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}
	return st, nil
}

// ValidateSchema checks that the file carries every column the reader needs.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, col := range []string{"batch_run_id", "line_no", "staff", "code", "amount", "surcharge"} {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not a liquidation archive: missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}
