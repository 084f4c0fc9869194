// Package kpi scores work orders against their benchmarks and aggregates the
// on-time rate by fiscal year, month and category.
package kpi

import (
	"fmt"
	"strconv"

	lo "github.com/samber/lo"

	"kpicentral/domain/fiscal"
	"kpicentral/domain/workorder"
)

// Exclusion reasons.
const (
	ReasonNoCategory  = workorder.GapNoCategory
	ReasonNoBenchmark = workorder.GapNoBenchmark
	ReasonNoDuration  = "no_duration"
)

// OnTime reports whether duration is within benchmark. ok is false when either is missing.
func OnTime(duration *float64, benchmark *int) (onTime bool, ok bool) {
	if duration == nil || benchmark == nil {
		return false, false
	}
	return *duration <= float64(*benchmark), true
}

// Exclusion is a record left out of the on-time computation and why.
type Exclusion struct {
	workorder.Record
	Reason string
}

// Unclassified reports whether the exclusion is a classification gap.
func (e Exclusion) Unclassified() bool {
	return e.Reason == ReasonNoCategory || e.Reason == ReasonNoBenchmark
}

// Evaluation splits records into scored ones (OnTime set) and exclusions.
type Evaluation struct {
	Scored   []workorder.Record
	Excluded []Exclusion
}

// Unclassified returns the exclusions caused by classification gaps.
func (e Evaluation) Unclassified() []Exclusion {
	return lo.Filter(e.Excluded, func(x Exclusion, _ int) bool { return x.Unclassified() })
}

// Evaluate scores every record that has a category, a benchmark and a duration.
func Evaluate(rows []workorder.Record) Evaluation {
	var ev Evaluation
	for _, r := range rows {
		r.OnTime = nil
		switch {
		case !r.Categorized && !r.Preventive:
			ev.Excluded = append(ev.Excluded, Exclusion{Record: r, Reason: ReasonNoCategory})
		case r.Benchmark == nil:
			ev.Excluded = append(ev.Excluded, Exclusion{Record: r, Reason: ReasonNoBenchmark})
		case r.DurationDays == nil:
			ev.Excluded = append(ev.Excluded, Exclusion{Record: r, Reason: ReasonNoDuration})
		default:
			onTime, _ := OnTime(r.DurationDays, r.Benchmark)
			r.OnTime = lo.ToPtr(onTime)
			ev.Scored = append(ev.Scored, r)
		}
	}
	return ev
}

// Selection restricts the records a report covers.
type Selection string

const (
	SelectAll        Selection = "all"
	SelectPreventive Selection = "pm"
	SelectCorrective Selection = "cm"
)

// Valid reports whether s is a known selection.
func (s Selection) Valid() bool {
	return s == SelectAll || s == SelectPreventive || s == SelectCorrective
}

// Select returns the records matching s.
func Select(rows []workorder.Record, s Selection) []workorder.Record {
	switch s {
	case SelectPreventive:
		return lo.Filter(rows, func(r workorder.Record, _ int) bool { return r.Preventive })
	case SelectCorrective:
		return lo.Filter(rows, func(r workorder.Record, _ int) bool { return !r.Preventive })
	default:
		return append([]workorder.Record(nil), rows...)
	}
}

// PMCM is the preventive / corrective split of a group.
type PMCM struct {
	CountPM   int
	CountCM   int
	Ratio     string  // "X:1", empty when Err is set
	PercentPM float64 // preventive per corrective, as a percentage
	Err       error   // *workorder.ArithmeticError when there is no corrective work
}

// Ratio divides preventive by corrective counts for a group. Zero corrective
// work is an ArithmeticError rather than an infinite ratio.
func Ratio(group string, pm, cm int) (percent float64, label string, err error) {
	if cm == 0 {
		return 0, "", &workorder.ArithmeticError{Group: group, Op: fmt.Sprintf("pm/cm ratio with %d preventive and 0 corrective", pm)}
	}
	r := float64(pm) / float64(cm)
	return fiscal.Round2(r * 100), strconv.FormatFloat(fiscal.Round2(r), 'f', -1, 64) + ":1", nil
}

// Summary is one aggregate row.
type Summary struct {
	Group         string
	PercentOnTime float64
	Total         int
	PMCM          *PMCM
}

// Table is an ordered set of summaries keyed by GroupColumn.
type Table struct {
	GroupColumn string
	Rows        []Summary
}

// Options controls the optional parts of an aggregation.
type Options struct {
	PMCM bool
}

func summarize(group string, rows []workorder.Record, opts Options) Summary {
	onTime := lo.CountBy(rows, func(r workorder.Record) bool { return r.OnTime != nil && *r.OnTime })
	s := Summary{
		Group:         group,
		Total:         len(rows),
		PercentOnTime: fiscal.Round2(100 * float64(onTime) / float64(len(rows))),
	}
	if opts.PMCM {
		pm := lo.CountBy(rows, func(r workorder.Record) bool { return r.Preventive })
		split := &PMCM{CountPM: pm, CountCM: len(rows) - pm}
		split.PercentPM, split.Ratio, split.Err = Ratio(group, split.CountPM, split.CountCM)
		s.PMCM = split
	}
	return s
}

// ratioErrors joins the per-group arithmetic errors of a table.
func ratioErrors(t Table) []error {
	return lo.FilterMap(t.Rows, func(s Summary, _ int) (error, bool) {
		if s.PMCM == nil || s.PMCM.Err == nil {
			return nil, false
		}
		return s.PMCM.Err, true
	})
}

func scored(rows []workorder.Record) []workorder.Record {
	return lo.Filter(rows, func(r workorder.Record, _ int) bool { return r.OnTime != nil })
}
