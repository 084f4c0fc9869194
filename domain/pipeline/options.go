package pipeline

import (
	"fmt"
	"time"

	lo "github.com/samber/lo"

	"kpicentral/domain/classify"
	"kpicentral/domain/config"
	"kpicentral/domain/fiscal"
	"kpicentral/domain/kpi"
	"kpicentral/domain/workorder"
)

// CutoffLayout is the date format of the report cutoff.
const CutoffLayout = "2006-01-02"

// FromConfig builds run options from the loaded configuration. Empty settings
// keep the defaults of DefaultOptions.
func FromConfig(cfg config.Config, now time.Time) (Options, error) {
	o := DefaultOptions(now)
	p, r := cfg.Pipeline, cfg.Report

	setMilestone := func(dst *workorder.Milestone, v string) {
		if v != "" {
			*dst = workorder.Milestone(v)
		}
	}
	setMilestone(&o.Anchor, p.Anchor)
	setMilestone(&o.DurationFrom, p.DurationFrom)
	setMilestone(&o.DurationTo, p.DurationTo)
	setMilestone(&o.StraddleFrom, p.SingleFiscalYear.From)
	setMilestone(&o.StraddleTo, p.SingleFiscalYear.To)
	setMilestone(&o.MonthOn, r.MonthGrouping)
	o.SingleFiscalYear = p.SingleFiscalYear.Enabled

	o.Reassemble = lo.Map(p.Reassemble, func(ra config.Reassembly, _ int) fiscal.Reassembly {
		return fiscal.Reassembly{Milestone: workorder.Milestone(ra.Milestone), TimeColumn: ra.TimeColumn}
	})

	if p.Selection != "" {
		o.Selection = kpi.Selection(p.Selection)
	}
	o.Classifier = classify.Options{
		BenchmarkOverrides:  p.Benchmarks,
		Preventive:          p.PreventiveTypes,
		PreventiveBenchmark: p.PreventiveBenchmark,
	}

	if p.RequiredColumns != nil {
		o.Normalize.Required = p.RequiredColumns
	}
	if p.IntColumns != nil {
		o.Normalize.IntColumns = p.IntColumns
	}
	if p.BoolColumns != nil {
		o.Normalize.BoolColumns = p.BoolColumns
	}
	if p.RemovedStatuses != nil {
		o.Normalize.RemovedStatuses = p.RemovedStatuses
	}

	if r.CurrentFiscalYear != 0 {
		o.CurrentFY = r.CurrentFiscalYear
	}
	if r.Cutoff != "" {
		c, err := time.Parse(CutoffLayout, r.Cutoff)
		if err != nil {
			return o, fmt.Errorf("report cutoff %q: %w", r.Cutoff, err)
		}
		o.Cutoff = c
	}
	o.Categories = kpi.Trim{TopN: r.Categories.TopN, MinRows: r.Categories.MinRows}

	return o, o.validate()
}
