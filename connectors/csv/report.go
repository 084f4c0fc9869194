package csv

import (
	"strconv"
	"time"

	lo "github.com/samber/lo"

	"kpicentral/domain/fiscal"
	"kpicentral/domain/kpi"
	"kpicentral/domain/workorder"
)

// Output file names under the data directory.
const (
	FileRaw              = "work_orders_raw.csv"
	FileRecords          = "work_orders.csv"
	FileKPIFiscalYear    = "kpi_fiscal_year.csv"
	FileKPIMonth         = "kpi_month.csv"
	FileKPICategory      = "kpi_category.csv"
	FilePMCMFiscalYear   = "pm_cm_fiscal_year.csv"
	FilePMCMMonth        = "pm_cm_month.csv"
	FileUnclassified     = "unclassified.csv"
	FileStraddling       = "straddling.csv"
	FileExcluded         = "excluded.csv"
	FileRunManifest      = "run.json"
	FilePrometheusExport = "kpi.prom"
)

// Labels names the percent and total columns of summary tables.
type Labels struct {
	Percent string
	Total   string
}

func (l Labels) orDefault() Labels {
	if l.Percent == "" {
		l.Percent = "percent_on_time"
	}
	if l.Total == "" {
		l.Total = "total"
	}
	return l
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// WriteSummaries writes a KPI table. With pmcm the preventive / corrective
// columns are added; a group whose ratio failed has empty ratio fields and the
// error text in ratio_error.
func WriteSummaries(path string, t kpi.Table, labels Labels, pmcm bool) error {
	labels = labels.orDefault()
	header := []string{t.GroupColumn, labels.Percent, labels.Total}
	if pmcm {
		header = append(header, "count_pm", "count_cm", "pm_cm_ratio", "percent_pm", "ratio_error")
	}
	rows := lo.Map(t.Rows, func(s kpi.Summary, _ int) []string {
		row := []string{s.Group, formatFloat(s.PercentOnTime), strconv.Itoa(s.Total)}
		if !pmcm {
			return row
		}
		if s.PMCM == nil {
			return append(row, "", "", "", "", "")
		}
		row = append(row, strconv.Itoa(s.PMCM.CountPM), strconv.Itoa(s.PMCM.CountCM))
		if s.PMCM.Err != nil {
			return append(row, "", "", s.PMCM.Err.Error())
		}
		return append(row, s.PMCM.Ratio, formatFloat(s.PMCM.PercentPM), "")
	})
	return writeCSV(path, header, rows)
}

// WriteExclusions writes excluded records with their reason.
func WriteExclusions(path string, xs []kpi.Exclusion) error {
	header := []string{"wr_id", "problem_type", "category", "status", "reason"}
	rows := lo.Map(xs, func(x kpi.Exclusion, _ int) []string {
		return []string{strconv.FormatInt(x.ID, 10), x.ProblemType, x.Category, x.Status, x.Reason}
	})
	return writeCSV(path, header, rows)
}

// WritePartition writes the records kept out by the single fiscal year policy.
func WritePartition(path string, p fiscal.Partition, from, to workorder.Milestone) error {
	header := []string{"wr_id", "problem_type", "set", "fy_" + string(from), "fy_" + string(to)}
	fy := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return strconv.Itoa(fiscal.FiscalYearOf(*t))
	}
	var rows [][]string
	add := func(set string, rs []workorder.Record) {
		for _, r := range rs {
			rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.ProblemType, set, fy(r.At(from)), fy(r.At(to))})
		}
	}
	add("straddling", p.Straddling)
	add("undetermined", p.Undetermined)
	return writeCSV(path, header, rows)
}

// WriteRecords writes every enriched record for downstream rendering.
func WriteRecords(path string, rs []workorder.Record) error {
	header := []string{
		"wr_id", "problem_type", "status", "supervisor", "role_name",
		"requested_dt", "completed_dt", "date_closed",
		"fiscal_year", "primary_type", "benchmark", "is_pm", "days_to_completion", "is_on_time",
	}
	ts := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	rows := lo.Map(rs, func(r workorder.Record, _ int) []string {
		return []string{
			strconv.FormatInt(r.ID, 10), r.ProblemType, r.Status, r.Supervisor, r.Role,
			ts(r.Requested), ts(r.Completed), ts(r.Closed),
			optInt(r.FiscalYear), r.Category, optInt(r.Benchmark), strconv.FormatBool(r.Preventive),
			optFloat(r.DurationDays), optBool(r.OnTime),
		}
	})
	return writeCSV(path, header, rows)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
