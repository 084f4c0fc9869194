// Package fiscal maps dates onto fiscal years starting July 1 and derives
// durations between work-order milestones.
package fiscal

import (
	"math"
	"time"

	lo "github.com/samber/lo"

	"kpicentral/domain/workorder"
)

// StartMonth is the first month of a fiscal year.
const StartMonth = time.July

// FiscalYearOf returns the fiscal year a calendar date falls in: dates from
// July onward belong to the next calendar year's fiscal year.
func FiscalYearOf(t time.Time) int {
	if t.Month() >= StartMonth {
		return t.Year() + 1
	}
	return t.Year()
}

// Bounds returns the first instant of fiscal year fy and the first instant of the next one.
func Bounds(fy int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(fy-1, StartMonth, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DurationDays is the signed number of days from start to end, rounded to two
// decimals. Negative values are kept: they flag records closed before they were opened.
func DurationDays(start, end time.Time) float64 {
	return Round2(end.Sub(start).Hours() / 24)
}

// AssignFiscalYear returns copies of rows with FiscalYear anchored on the given
// milestone; rows without that timestamp get no fiscal year.
func AssignFiscalYear(rows []workorder.Record, anchor workorder.Milestone) []workorder.Record {
	return lo.Map(rows, func(r workorder.Record, _ int) workorder.Record {
		r.FiscalYear = nil
		if t := r.At(anchor); t != nil {
			r.FiscalYear = lo.ToPtr(FiscalYearOf(*t))
		}
		return r
	})
}

// AttachDurations returns copies of rows with DurationDays measured between two milestones.
func AttachDurations(rows []workorder.Record, from, to workorder.Milestone) []workorder.Record {
	return lo.Map(rows, func(r workorder.Record, _ int) workorder.Record {
		r.DurationDays = nil
		start, end := r.At(from), r.At(to)
		if start != nil && end != nil {
			r.DurationDays = lo.ToPtr(DurationDays(*start, *end))
		}
		return r
	})
}

// Partition separates records by whether two milestones fall in the same fiscal year.
type Partition struct {
	Within       []workorder.Record
	Straddling   []workorder.Record
	Undetermined []workorder.Record // at least one milestone missing
}

// SplitFiscalYears partitions rows on the fiscal years of from and to. Nothing is dropped:
// every input row lands in exactly one of the three sets.
func SplitFiscalYears(rows []workorder.Record, from, to workorder.Milestone) Partition {
	var p Partition
	for _, r := range rows {
		a, b := r.At(from), r.At(to)
		switch {
		case a == nil || b == nil:
			p.Undetermined = append(p.Undetermined, r)
		case FiscalYearOf(*a) == FiscalYearOf(*b):
			p.Within = append(p.Within, r)
		default:
			p.Straddling = append(p.Straddling, r)
		}
	}
	return p
}
