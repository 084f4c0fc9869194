package kpi

import (
	"errors"
	"slices"
	"strconv"
	"time"

	lo "github.com/samber/lo"

	"kpicentral/domain/workorder"
)

// Group column labels of the produced tables.
const (
	ColumnFiscalYear = "fiscal_year"
	ColumnYearMonth  = "year_month"
	ColumnCategory   = "category"
)

// MonthLabelLayout renders a month as "Jan-24".
const MonthLabelLayout = "Jan-06"

// ByFiscalYear aggregates scored records per fiscal year in ascending order.
// Records without a fiscal year or without an on-time flag are skipped. With
// PMCM enabled, groups without corrective work carry an ArithmeticError and the
// joined errors are returned alongside the complete table.
func ByFiscalYear(rows []workorder.Record, opts Options) (Table, error) {
	withFY := lo.Filter(scored(rows), func(r workorder.Record, _ int) bool { return r.FiscalYear != nil })
	groups := lo.GroupBy(withFY, func(r workorder.Record) int { return *r.FiscalYear })
	years := lo.Keys(groups)
	slices.Sort(years)

	t := Table{GroupColumn: ColumnFiscalYear}
	for _, fy := range years {
		t.Rows = append(t.Rows, summarize(strconv.Itoa(fy), groups[fy], opts))
	}
	return t, errors.Join(ratioErrors(t)...)
}

// ByMonth aggregates the scored records of fiscal year currentFY whose milestone
// falls strictly before cutoff, per calendar month in chronological order.
func ByMonth(rows []workorder.Record, currentFY int, cutoff time.Time, on workorder.Milestone, opts Options) (Table, error) {
	inScope := lo.Filter(scored(rows), func(r workorder.Record, _ int) bool {
		at := r.At(on)
		return r.FiscalYear != nil && *r.FiscalYear == currentFY && at != nil && at.Before(cutoff)
	})
	groups := lo.GroupBy(inScope, func(r workorder.Record) time.Time {
		at := r.At(on)
		return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
	months := lo.Keys(groups)
	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })

	t := Table{GroupColumn: ColumnYearMonth}
	for _, m := range months {
		t.Rows = append(t.Rows, summarize(m.Format(MonthLabelLayout), groups[m], opts))
	}
	return t, errors.Join(ratioErrors(t)...)
}

// ByCategory aggregates scored records per primary category, largest group first.
func ByCategory(rows []workorder.Record) Table {
	groups := lo.GroupBy(scored(rows), func(r workorder.Record) string { return r.Category })
	t := Table{GroupColumn: ColumnCategory}
	for cat, rs := range groups {
		t.Rows = append(t.Rows, summarize(cat, rs, Options{}))
	}
	sortByTotal(t.Rows)
	return t
}

func sortByTotal(rows []Summary) {
	slices.SortStableFunc(rows, func(a, b Summary) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}
		if a.Group < b.Group {
			return -1
		}
		if a.Group > b.Group {
			return 1
		}
		return 0
	})
}

// Trim selects which groups of a table to keep.
type Trim struct {
	TopN    int // keep the N largest groups when > 0
	MinRows int // otherwise keep groups with more than MinRows rows
}

// TrimSmallGroups returns a copy of t limited to its large groups.
func TrimSmallGroups(t Table, trim Trim) Table {
	rows := append([]Summary(nil), t.Rows...)
	sortByTotal(rows)
	if trim.TopN > 0 {
		if len(rows) > trim.TopN {
			rows = rows[:trim.TopN]
		}
		return Table{GroupColumn: t.GroupColumn, Rows: rows}
	}
	rows = lo.Filter(rows, func(s Summary, _ int) bool { return s.Total > trim.MinRows })
	return Table{GroupColumn: t.GroupColumn, Rows: rows}
}
