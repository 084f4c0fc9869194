package promfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"kpicentral/domain/kpi"
	"kpicentral/domain/normalize"
	"kpicentral/domain/pipeline"
	"kpicentral/domain/workorder"
)

func result() *pipeline.Result {
	return &pipeline.Result{
		RunID:     "run-1",
		Normalize: normalize.Report{OutputRows: 7},
		Yearly: kpi.Table{GroupColumn: kpi.ColumnFiscalYear, Rows: []kpi.Summary{
			{Group: "2023", PercentOnTime: 75, Total: 4, PMCM: &kpi.PMCM{CountPM: 1, CountCM: 3}},
		}},
		Categories: kpi.Table{GroupColumn: kpi.ColumnCategory, Rows: []kpi.Summary{
			{Group: "HVAC", PercentOnTime: 50, Total: 2},
		}},
		Evaluation: kpi.Evaluation{Excluded: []kpi.Exclusion{
			{Record: workorder.Record{WorkOrder: workorder.WorkOrder{ID: 1}}, Reason: kpi.ReasonNoCategory},
			{Record: workorder.Record{WorkOrder: workorder.WorkOrder{ID: 2}}, Reason: kpi.ReasonNoCategory},
			{Record: workorder.Record{WorkOrder: workorder.WorkOrder{ID: 3}}, Reason: kpi.ReasonNoDuration},
		}},
	}
}

func parse(t *testing.T, b []byte) map[string]*dto.MetricFamily {
	t.Helper()
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return mfs
}

func value(mf *dto.MetricFamily, labels map[string]string) (float64, bool) {
	for _, m := range mf.GetMetric() {
		match := true
		for k, v := range labels {
			found := false
			for _, lp := range m.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
				}
			}
			match = match && found
		}
		if match {
			return m.GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "kpi.prom")
	if err := Write(path, result()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	mfs := parse(t, b)

	if v, ok := value(mfs[MetricPercentOnTime], map[string]string{"dimension": "fiscal_year", "group": "2023"}); !ok || v != 75 {
		t.Errorf("percent fy2023: %v %v", v, ok)
	}
	if v, ok := value(mfs[MetricTotal], map[string]string{"dimension": "category", "group": "HVAC"}); !ok || v != 2 {
		t.Errorf("total HVAC: %v %v", v, ok)
	}
	if v, ok := value(mfs[MetricCorrective], map[string]string{"group": "2023"}); !ok || v != 3 {
		t.Errorf("corrective: %v %v", v, ok)
	}
	if v, ok := value(mfs[MetricUnclassified], map[string]string{"reason": kpi.ReasonNoCategory}); !ok || v != 2 {
		t.Errorf("unclassified: %v %v", v, ok)
	}
	if _, ok := value(mfs[MetricUnclassified], map[string]string{"reason": kpi.ReasonNoDuration}); ok {
		t.Error("missing durations are not classification gaps")
	}
	if v, ok := value(mfs[MetricNormalized], map[string]string{"run_id": "run-1"}); !ok || v != 7 {
		t.Errorf("normalized rows: %v %v", v, ok)
	}
}

func TestFamilies_SkipsEmpty(t *testing.T) {
	res := &pipeline.Result{RunID: "empty"}
	for _, mf := range Families(res) {
		if len(mf.GetMetric()) == 0 {
			t.Errorf("%s has no samples", mf.GetName())
		}
		if mf.GetName() == MetricPercentOnTime {
			t.Errorf("no groups, no percent family")
		}
	}
}
