package calculate

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	kcsv "kpicentral/connectors/csv"
	dconfig "kpicentral/domain/config"
)

const input = `WR_ID,Prob Type,Status,Supervisor,CF Notes,Requested_DT,Completed_DT,Date Closed
101,HVAC|REPAIR,A,,,2021-06-15,2021-07-01,2021-07-02
102,ROOF,AA,Jane,,2024-01-02,2024-01-10,2024-01-11
103,BUILDING PM,AA,Jane,,2024-01-03,2024-02-10,2024-02-11
104,MYSTERY,AA,,,2024-01-03,2024-01-04,2024-01-05
105,HVAC TEST UNIT,AA,,,2024-01-03,2024-01-04,2024-01-05
106,ROOF,Clo,,Duplicate of WR 102,2024-01-03,,
`

func setup(t *testing.T) (*dconfig.Config, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, kcsv.FileRaw), []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &dconfig.Config{DataDir: dir}
	cfg.Report.Labels.Percent = "percent_on_time"
	cfg.Report.Labels.Total = "total"
	cfg.Pipeline.SingleFiscalYear.Enabled = true
	return cfg, dir
}

func TestRun_WritesOutputs(t *testing.T) {
	cfg, dir := setup(t)
	var out bytes.Buffer
	res, err := Run(context.Background(), cfg, Flags{CurrentFY: 2024, Cutoff: "2024-03-01"}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Normalize.InputRows != 6 || res.Normalize.OutputRows != 4 {
		t.Errorf("normalize: %+v", res.Normalize)
	}

	for _, f := range []string{
		kcsv.FileKPIFiscalYear, kcsv.FilePMCMFiscalYear, kcsv.FileKPIMonth, kcsv.FilePMCMMonth,
		kcsv.FileKPICategory, kcsv.FileUnclassified, kcsv.FileExcluded, kcsv.FileRecords,
		kcsv.FileRunManifest, kcsv.FilePrometheusExport, kcsv.FileStraddling,
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}

	months, err := os.ReadFile(filepath.Join(dir, kcsv.FileKPIMonth))
	if err != nil {
		t.Fatal(err)
	}
	if want := "year_month,percent_on_time,total\nJan-24,100.00,1\nFeb-24,0.00,1\n"; string(months) != want {
		t.Errorf("kpi_month.csv:\n%s\nwant:\n%s", months, want)
	}

	unclassified, _ := os.ReadFile(filepath.Join(dir, kcsv.FileUnclassified))
	if !strings.Contains(string(unclassified), "104,MYSTERY") {
		t.Errorf("unclassified.csv: %s", unclassified)
	}

	var m Manifest
	b, _ := os.ReadFile(filepath.Join(dir, kcsv.FileRunManifest))
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("run.json: %v", err)
	}
	if m.RunID != res.RunID || m.CurrentFY != 2024 || m.Cutoff != "2024-03-01" || m.Excluded["no_category"] != 1 {
		t.Errorf("manifest: %+v", m)
	}
	if m.FYStart != "2023-07-01" || m.FYEnd != "2024-06-30" {
		t.Errorf("manifest fiscal year window: %s - %s", m.FYStart, m.FYEnd)
	}
	if !strings.Contains(out.String(), res.RunID) {
		t.Errorf("summary: %s", out.String())
	}
}

func TestRun_SelectionFlag(t *testing.T) {
	cfg, _ := setup(t)
	res, err := Run(context.Background(), cfg, Flags{CurrentFY: 2024, Cutoff: "2024-03-01", Selection: "pm"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Evaluation.Scored) != 1 || !res.Evaluation.Scored[0].Preventive {
		t.Errorf("scored: %+v", res.Evaluation.Scored)
	}
	if cfg.Pipeline.Selection != "" {
		t.Error("flags leaked into the shared configuration")
	}
}

func TestRun_MissingInput(t *testing.T) {
	cfg := &dconfig.Config{DataDir: t.TempDir()}
	if _, err := Run(context.Background(), cfg, Flags{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestRun_BadCutoff(t *testing.T) {
	cfg, _ := setup(t)
	if _, err := Run(context.Background(), cfg, Flags{Cutoff: "March"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected cutoff error")
	}
}

func TestRun_RecordsCarryOnTimeFlag(t *testing.T) {
	cfg, dir := setup(t)
	if _, err := Run(context.Background(), cfg, Flags{CurrentFY: 2024, Cutoff: "2024-03-01"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, kcsv.FileRecords))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("work_orders.csv: %v", err)
	}
	col := slices.Index(rows[0], "is_on_time")
	if col < 0 {
		t.Fatalf("header: %v", rows[0])
	}
	want := map[string]string{"101": "", "102": "true", "103": "false", "104": ""}
	for _, r := range rows[1:] {
		if w, ok := want[r[0]]; ok && r[col] != w {
			t.Errorf("wr %s is_on_time: got %q, want %q", r[0], r[col], w)
		}
	}
}

func TestRun_RemovesStaleStraddlingFile(t *testing.T) {
	cfg, dir := setup(t)
	flags := Flags{CurrentFY: 2024, Cutoff: "2024-03-01"}
	if _, err := Run(context.Background(), cfg, flags, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	path := filepath.Join(dir, kcsv.FileStraddling)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("straddling.csv: %v", err)
	}

	cfg.Pipeline.SingleFiscalYear.Enabled = false
	if _, err := Run(context.Background(), cfg, flags, &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("straddling.csv should be gone, stat: %v", err)
	}
}
