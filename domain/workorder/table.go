package workorder

import (
	"context"
	"database/sql"
)

// RawTable is an already-materialized tabular dataset as handed over by a source.
// Cells keep their textual form; Valid=false marks an absent value.
type RawTable struct {
	Columns []string
	Rows    [][]sql.NullString
}

// Source supplies a raw table. Implementations own their connections and files
// for the duration of a single Fetch.
type Source interface {
	Fetch(ctx context.Context) (RawTable, error)
}

// Str returns a present cell.
func Str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

// Null returns an absent cell.
func Null() sql.NullString { return sql.NullString{} }

// Index maps each column label to its first position.
func (t RawTable) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

// Clone returns a deep copy so stages never share row storage with their input.
func (t RawTable) Clone() RawTable {
	out := RawTable{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]sql.NullString, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]sql.NullString(nil), r...)
	}
	return out
}

// Cell returns the value at row i for column, or an absent cell when the
// column is unknown or the row is short.
func (t RawTable) Cell(idx map[string]int, i int, column string) sql.NullString {
	j, ok := idx[column]
	if !ok || j >= len(t.Rows[i]) {
		return sql.NullString{}
	}
	return t.Rows[i][j]
}
