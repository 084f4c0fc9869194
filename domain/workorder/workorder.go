package workorder

import (
	"database/sql"
	"time"
)

// WorkOrder is one normalized and typed row.
type WorkOrder struct {
	ID          int64
	ProblemType string
	Status      string
	Supervisor  string // real name or NullSentinel
	Notes       string
	Role        string

	Requested *time.Time
	Completed *time.Time
	Closed    *time.Time

	Ints  map[string]*int64         // declared integer columns present in the input
	Bools map[string]bool           // declared boolean columns present in the input
	Extra map[string]sql.NullString // every other column, trimmed
}

// Record is a WorkOrder plus the attributes derived by the pipeline stages.
type Record struct {
	WorkOrder

	FiscalYear   *int
	Category     string
	Categorized  bool
	Benchmark    *int
	Preventive   bool
	DurationDays *float64
	OnTime       *bool
}

// Table is the output of normalization.
type Table struct {
	Columns []string
	Rows    []WorkOrder
}

// Records wraps every work order of the table into a Record with no derived attributes.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i, wo := range t.Rows {
		out[i] = Record{WorkOrder: wo}
	}
	return out
}

// Milestone selects one of the work order timestamps.
type Milestone string

const (
	Requested Milestone = "requested"
	Completed Milestone = "completed"
	Closed    Milestone = "closed"
)

// Valid reports whether m names a known milestone.
func (m Milestone) Valid() bool {
	switch m {
	case Requested, Completed, Closed:
		return true
	}
	return false
}

// At returns the timestamp anchored by m, nil when absent.
func (wo WorkOrder) At(m Milestone) *time.Time {
	switch m {
	case Requested:
		return wo.Requested
	case Completed:
		return wo.Completed
	case Closed:
		return wo.Closed
	}
	return nil
}

// WithAt returns a copy of wo with the milestone timestamp replaced.
func (wo WorkOrder) WithAt(m Milestone, t *time.Time) WorkOrder {
	switch m {
	case Requested:
		wo.Requested = t
	case Completed:
		wo.Completed = t
	case Closed:
		wo.Closed = t
	}
	return wo
}
