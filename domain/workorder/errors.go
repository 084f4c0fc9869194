package workorder

import "fmt"

// SchemaError reports a required column missing from the input table.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing required column %q", e.Column)
}

// DataQualityError locates a value that could not be coerced to its declared type.
// Row is the zero-based position in the raw input table.
type DataQualityError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: row %d column %q value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *DataQualityError) Unwrap() error { return e.Err }

// Gap reasons.
const (
	GapNoCategory  = "no_category"
	GapNoBenchmark = "no_benchmark"
)

// ClassificationGap describes a row that could not be categorized or benchmarked.
type ClassificationGap struct {
	ID          int64
	ProblemType string
	Category    string
	Reason      string
}

func (e *ClassificationGap) Error() string {
	if e.Reason == GapNoBenchmark {
		return fmt.Sprintf("classification: wr %d category %q has no benchmark", e.ID, e.Category)
	}
	return fmt.Sprintf("classification: wr %d problem type %q matches no rule", e.ID, e.ProblemType)
}

// ArithmeticError reports a ratio that cannot be computed for a group.
type ArithmeticError struct {
	Group string
	Op    string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic: group %s: %s", e.Group, e.Op)
}
