// Package normalize turns a raw work-order table into a clean, typed table.
//
// Normalization is all-or-nothing: a missing required column or a value that
// cannot be cast aborts the run.
package normalize

import (
	"database/sql"
	"regexp"
	"strings"

	lo "github.com/samber/lo"

	"kpicentral/domain/workorder"
)

type workorderCell = sql.NullString

// DefaultRemovedStatuses are the cancelled / closed / removed status codes that,
// combined with a "duplicate" note, mark a work order as a duplicate.
var DefaultRemovedStatuses = []string{"Can", "Clo", "R"}

var duplicateNote = regexp.MustCompile(`(?i)duplicate`)

// Options parameterizes normalization.
type Options struct {
	Required        []string
	IntColumns      []string
	BoolColumns     []string
	RemovedStatuses []string
}

// DefaultOptions returns the options matching the facilities work-order views.
func DefaultOptions() Options {
	return Options{
		Required:        workorder.DefaultRequired,
		IntColumns:      workorder.DefaultIntColumns,
		BoolColumns:     workorder.DefaultBoolColumns,
		RemovedStatuses: DefaultRemovedStatuses,
	}
}

// Report counts what each step removed.
type Report struct {
	InputRows        int `json:"input_rows"`
	MissingRequired  int `json:"missing_required"`
	ExcludedTest     int `json:"excluded_test"`
	DuplicateIDs     int `json:"duplicate_ids"`
	DuplicateRows    int `json:"duplicate_rows"`
	CollapsedRepeats int `json:"collapsed_repeats"`
	OutputRows       int `json:"output_rows"`
}

// frame is the working copy; origin keeps the raw row position for error locations.
type frame struct {
	columns []string
	idx     map[string]int
	rows    [][]workorderCell
	origin  []int
}

func (f *frame) cell(i int, column string) workorderCell {
	j, ok := f.idx[column]
	if !ok {
		return workorderCell{}
	}
	return f.rows[i][j]
}

func (f *frame) keep(pred func(i int) bool) int {
	var rows [][]workorderCell
	var origin []int
	for i := range f.rows {
		if pred(i) {
			rows = append(rows, f.rows[i])
			origin = append(origin, f.origin[i])
		}
	}
	removed := len(f.rows) - len(rows)
	f.rows, f.origin = rows, origin
	return removed
}

// Normalize cleans raw and returns a new typed table. raw is never modified.
func Normalize(raw workorder.RawTable, opts Options) (*workorder.Table, Report, error) {
	if opts.Required == nil {
		opts.Required = workorder.DefaultRequired
	}
	if opts.RemovedStatuses == nil {
		opts.RemovedStatuses = DefaultRemovedStatuses
	}
	rep := Report{InputRows: len(raw.Rows)}

	clean := CleanColumns(raw.Clone())
	for _, c := range opts.Required {
		if !lo.Contains(clean.Columns, c) {
			return nil, rep, &workorder.SchemaError{Column: c}
		}
	}

	schema := workorder.NewSchema(opts.IntColumns, opts.BoolColumns)
	f := &frame{columns: clean.Columns, idx: clean.Index(), rows: clean.Rows, origin: lo.Range(len(clean.Rows))}

	resolveNulls(f, schema)

	rep.MissingRequired = f.keep(func(i int) bool {
		return f.cell(i, workorder.ColID).Valid && f.cell(i, workorder.ColProblemType).Valid
	})
	rep.ExcludedTest = f.keep(func(i int) bool {
		return !strings.Contains(f.cell(i, workorder.ColProblemType).String, "TEST")
	})
	if j, ok := f.idx[workorder.ColStatus]; ok {
		for _, r := range f.rows {
			if r[j].Valid && r[j].String == "A" {
				r[j].String = "AA"
			}
		}
	}

	dupes := duplicateIDs(f, opts.RemovedStatuses)
	rep.DuplicateIDs = len(dupes)
	rep.DuplicateRows = f.keep(func(i int) bool {
		_, flagged := dupes[idKey(f.cell(i, workorder.ColID).String)]
		return !flagged
	})

	out, collapsed, err := cast(f, schema)
	if err != nil {
		return nil, rep, err
	}
	rep.CollapsedRepeats = collapsed
	rep.OutputRows = len(out.Rows)
	return out, rep, nil
}

// resolveNulls trims every cell and applies each column's null policy.
func resolveNulls(f *frame, schema workorder.Schema) {
	for j, c := range f.columns {
		spec := schema.Spec(c)
		for _, r := range f.rows {
			v := r[j]
			if v.Valid {
				v.String = strings.TrimSpace(v.String)
				if v.String == "" || v.String == workorder.NullSentinel {
					v = workorderCell{}
				}
			}
			if spec.Null == workorder.SentinelNull && !v.Valid {
				v = workorder.Str(spec.Sentinel)
			}
			r[j] = v
		}
	}
}

// IsDuplicateFlag reports whether a row marks its identifier as a duplicate.
func IsDuplicateFlag(notes, status string, removedStatuses []string) bool {
	return duplicateNote.MatchString(notes) && lo.Contains(removedStatuses, status)
}

// duplicateIDs collects identifiers with at least one flagged row.
func duplicateIDs(f *frame, removedStatuses []string) map[string]struct{} {
	ids := map[string]struct{}{}
	for i := range f.rows {
		notes := f.cell(i, workorder.ColNotes)
		status := f.cell(i, workorder.ColStatus)
		if notes.Valid && status.Valid && IsDuplicateFlag(notes.String, status.String, removedStatuses) {
			ids[idKey(f.cell(i, workorder.ColID).String)] = struct{}{}
		}
	}
	return ids
}
