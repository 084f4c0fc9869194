package csv

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kpicentral/domain/workorder"
)

// FileSource reads a raw work-order table from a CSV file.
type FileSource struct {
	Path string
}

// Fetch implements workorder.Source.
func (s FileSource) Fetch(ctx context.Context) (workorder.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return workorder.RawTable{}, err
	}
	return ReadTable(s.Path)
}

// ReadTable loads a CSV file into a raw table. Empty fields are absent values;
// short rows are padded with absent values.
func ReadTable(path string) (workorder.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return workorder.RawTable{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a header line and the rows that follow it.
func Decode(r io.Reader) (workorder.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return workorder.RawTable{}, fmt.Errorf("csv: empty input, no header")
	}
	if err != nil {
		return workorder.RawTable{}, err
	}
	t := workorder.RawTable{Columns: head}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return workorder.RawTable{}, err
		}
		row := make([]sql.NullString, len(head))
		for j := 0; j < len(head) && j < len(rec); j++ {
			if rec[j] != "" {
				row[j] = workorder.Str(rec[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteTable writes a raw table, absent values as empty fields.
func WriteTable(path string, t workorder.RawTable) error {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(t.Columns))
		for j := range t.Columns {
			if j < len(r) && r[j].Valid {
				rows[i][j] = r[j].String
			}
		}
	}
	return writeCSV(path, t.Columns, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
