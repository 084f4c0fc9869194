// Package promfile renders run results in the Prometheus text exposition
// format, for node_exporter's textfile collector and the /metrics endpoint.
package promfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	lo "github.com/samber/lo"

	"kpicentral/domain/kpi"
	"kpicentral/domain/pipeline"
)

// Metric names.
const (
	MetricPercentOnTime = "kpi_percent_on_time"
	MetricTotal         = "kpi_work_orders_total"
	MetricPreventive    = "kpi_preventive_work_orders"
	MetricCorrective    = "kpi_corrective_work_orders"
	MetricUnclassified  = "kpi_unclassified_work_orders"
	MetricNormalized    = "kpi_normalized_rows"
)

func gauge(name, help string, ms []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   lo.ToPtr(name),
		Help:   lo.ToPtr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: ms,
	}
}

func sample(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: lo.ToPtr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: lo.ToPtr(labels[i]), Value: lo.ToPtr(labels[i+1])})
	}
	return m
}

// Families converts a run result into metric families, in a stable order.
func Families(res *pipeline.Result) []*dto.MetricFamily {
	var pct, total, pm, cm []*dto.Metric
	add := func(t kpi.Table, dim string) {
		for _, s := range t.Rows {
			pct = append(pct, sample(s.PercentOnTime, "dimension", dim, "group", s.Group))
			total = append(total, sample(float64(s.Total), "dimension", dim, "group", s.Group))
			if s.PMCM != nil {
				pm = append(pm, sample(float64(s.PMCM.CountPM), "dimension", dim, "group", s.Group))
				cm = append(cm, sample(float64(s.PMCM.CountCM), "dimension", dim, "group", s.Group))
			}
		}
	}
	add(res.Yearly, "fiscal_year")
	add(res.Monthly, "month")
	add(res.Categories, "category")

	out := []*dto.MetricFamily{
		gauge(MetricPercentOnTime, "Share of scored work orders completed within benchmark.", pct),
		gauge(MetricTotal, "Scored work orders per group.", total),
	}
	if len(pm) > 0 {
		out = append(out,
			gauge(MetricPreventive, "Preventive work orders per group.", pm),
			gauge(MetricCorrective, "Corrective work orders per group.", cm),
		)
	}
	byReason := lo.CountValuesBy(res.Unclassified(), func(x kpi.Exclusion) string { return x.Reason })
	reasons := lo.Keys(byReason)
	sort.Strings(reasons)
	out = append(out,
		gauge(MetricUnclassified, "Work orders excluded by classification gaps.",
			lo.Map(reasons, func(r string, _ int) *dto.Metric { return sample(float64(byReason[r]), "reason", r) })),
		gauge(MetricNormalized, "Rows left after normalization.",
			[]*dto.Metric{sample(float64(res.Normalize.OutputRows), "run_id", res.RunID)}),
	)
	return lo.Filter(out, func(mf *dto.MetricFamily, _ int) bool { return len(mf.Metric) > 0 })
}

// Encode writes the families as text exposition.
func Encode(w io.Writer, mfs []*dto.MetricFamily) error {
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Write renders res to path, replacing the file atomically.
func Write(path string, res *pipeline.Result) error {
	var buf bytes.Buffer
	if err := Encode(&buf, Families(res)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp." + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
