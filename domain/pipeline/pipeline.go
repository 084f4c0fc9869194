// Package pipeline runs the normalize, fiscal, classify and kpi stages in order
// over one materialized table. It is the only place the stages are wired
// together; report variants differ by Options only.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lo "github.com/samber/lo"

	"kpicentral/domain/classify"
	"kpicentral/domain/fiscal"
	"kpicentral/domain/kpi"
	"kpicentral/domain/normalize"
	"kpicentral/domain/workorder"
)

// Options parameterizes one run.
type Options struct {
	Normalize  normalize.Options
	Classifier classify.Options

	Anchor       workorder.Milestone
	DurationFrom workorder.Milestone
	DurationTo   workorder.Milestone
	Reassemble   []fiscal.Reassembly

	SingleFiscalYear bool
	StraddleFrom     workorder.Milestone
	StraddleTo       workorder.Milestone

	Selection  kpi.Selection
	CurrentFY  int
	Cutoff     time.Time
	MonthOn    workorder.Milestone
	Categories kpi.Trim
}

// DefaultOptions anchors on completion and measures request to completion.
func DefaultOptions(now time.Time) Options {
	return Options{
		Normalize:    normalize.DefaultOptions(),
		Anchor:       workorder.Completed,
		DurationFrom: workorder.Requested,
		DurationTo:   workorder.Completed,
		StraddleFrom: workorder.Requested,
		StraddleTo:   workorder.Closed,
		Selection:    kpi.SelectAll,
		CurrentFY:    fiscal.FiscalYearOf(now),
		Cutoff:       time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		MonthOn:      workorder.Closed,
	}
}

func (o Options) validate() error {
	for name, m := range map[string]workorder.Milestone{
		"anchor":        o.Anchor,
		"duration_from": o.DurationFrom,
		"duration_to":   o.DurationTo,
		"month_on":      o.MonthOn,
	} {
		if !m.Valid() {
			return fmt.Errorf("pipeline: invalid %s milestone %q", name, m)
		}
	}
	if o.SingleFiscalYear && (!o.StraddleFrom.Valid() || !o.StraddleTo.Valid()) {
		return fmt.Errorf("pipeline: invalid single fiscal year milestones %q/%q", o.StraddleFrom, o.StraddleTo)
	}
	for _, r := range o.Reassemble {
		if !r.Milestone.Valid() || r.TimeColumn == "" {
			return fmt.Errorf("pipeline: invalid reassembly rule %q/%q", r.Milestone, r.TimeColumn)
		}
	}
	if !o.Selection.Valid() {
		return fmt.Errorf("pipeline: invalid selection %q", o.Selection)
	}
	return nil
}

// Result holds every table a run produces, including the side channels.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Options    Options

	Normalize  normalize.Report
	Reassembly fiscal.ReassemblyReport

	Records    []workorder.Record // every normalized row with its derived attributes and on-time flag
	Partition  *fiscal.Partition  // set when SingleFiscalYear is enabled
	Gaps       []workorder.ClassificationGap
	Evaluation kpi.Evaluation

	Yearly     kpi.Table
	Monthly    kpi.Table
	Categories kpi.Table

	// RatioErr joins the per-group ArithmeticErrors of the yearly and monthly tables.
	RatioErr error
}

// Run executes the stages in order. raw is not modified. Only normalization and
// invalid options fail the run; classification gaps and ratio errors are
// reported in the Result. FinishedAt is now plus the elapsed run time.
func Run(raw workorder.RawTable, opts Options, now time.Time) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	began := time.Now()
	res := &Result{RunID: uuid.NewString(), StartedAt: now, Options: opts}

	table, rep, err := normalize.Normalize(raw, opts.Normalize)
	res.Normalize = rep
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	classifier, err := classify.New(opts.Classifier)
	if err != nil {
		return nil, err
	}

	records := table.Records()
	records, res.Reassembly = fiscal.Reassemble(records, opts.Reassemble)
	records = fiscal.AssignFiscalYear(records, opts.Anchor)
	records = fiscal.AttachDurations(records, opts.DurationFrom, opts.DurationTo)
	records, res.Gaps = classifier.Apply(records)

	eligible := records
	if opts.SingleFiscalYear {
		p := fiscal.SplitFiscalYears(records, opts.StraddleFrom, opts.StraddleTo)
		res.Partition = &p
		eligible = p.Within
	}

	res.Evaluation = kpi.Evaluate(kpi.Select(eligible, opts.Selection))
	scored := res.Evaluation.Scored

	var yErr, mErr error
	res.Yearly, yErr = kpi.ByFiscalYear(scored, kpi.Options{PMCM: true})
	res.Monthly, mErr = kpi.ByMonth(scored, opts.CurrentFY, opts.Cutoff, opts.MonthOn, kpi.Options{PMCM: true})
	res.RatioErr = errors.Join(yErr, mErr)
	res.Categories = kpi.TrimSmallGroups(kpi.ByCategory(scored), opts.Categories)

	onTime := lo.SliceToMap(scored, func(r workorder.Record) (int64, *bool) { return r.ID, r.OnTime })
	res.Records = lo.Map(records, func(r workorder.Record, _ int) workorder.Record {
		r.OnTime = onTime[r.ID]
		return r
	})

	res.FinishedAt = now.Add(time.Since(began))
	return res, nil
}

// Unclassified returns the excluded records caused by classification gaps.
func (r *Result) Unclassified() []kpi.Exclusion {
	return r.Evaluation.Unclassified()
}
