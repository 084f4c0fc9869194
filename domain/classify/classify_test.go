package classify

import (
	"testing"

	"kpicentral/domain/workorder"
)

func TestPrimary(t *testing.T) {
	c := Default()
	cases := []struct {
		problemType, role string
		want              string
		ok                bool
	}{
		{"HVAC|REPAIR", "", CategoryHVAC, true},
		{"BOILER", "", CategoryHVAC, true},
		{"HVAC|PM", "", CategoryPreventive, true},
		{"ROOF", "", "ROOF", true},
		{"OUTLETS", "", CategoryElectrical, true},
		{"ELEC LIGHTING", "", CategoryElectrical, true},
		{"PLUMBING LEAK", "", CategoryPlumbing, true},
		{"ENVIRONMENTAL", "", CategoryEnvironmental, true},
		{"SERVICE REQUEST", "", CategoryService, true},
		{"SECURITY SYSTEMS|CARD", "", CategorySecurity, true},
		{"DESIGN/RENOVATION", "", "DESIGN", true},
		{"OTHER", "FACILITIES GATEKEEPER", CategoryOtherExternal, true},
		{"STEPS", "TRADES", CategoryOtherInternal, true},
		{"OTHER", "", CategoryOtherInternal, true},
		{"MYSTERY", "", "", false},
		{"hvac|repair", "", "", false},
	}
	for _, tc := range cases {
		got, ok := c.Primary(tc.problemType, tc.role)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Primary(%q, %q): got %q/%v, want %q/%v", tc.problemType, tc.role, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPrimary_ExactBeatsPrefix(t *testing.T) {
	c, err := New(Options{Rules: []Rule{
		Exact("CUSTOM", "ELEC SPECIAL"),
		Prefix(CategoryElectrical, "ELEC"),
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Primary("ELEC SPECIAL", ""); got != "CUSTOM" {
		t.Errorf("got %q, want CUSTOM", got)
	}
	if got, _ := c.Primary("ELEC OTHER", ""); got != CategoryElectrical {
		t.Errorf("got %q, want %q", got, CategoryElectrical)
	}
}

func TestNew_RejectsExactAfterPrefix(t *testing.T) {
	_, err := New(Options{Rules: []Rule{
		Prefix(CategoryElectrical, "ELEC"),
		Exact("CUSTOM", "ELEC SPECIAL"),
	}})
	if err == nil {
		t.Fatal("expected an ordering error")
	}
}

func TestNew_RejectsBenchmarkOutsideAllowedSet(t *testing.T) {
	if _, err := New(Options{BenchmarkOverrides: map[string]int{CategoryHVAC: 10}}); err == nil {
		t.Fatal("expected a benchmark error")
	}
	c, err := New(Options{BenchmarkOverrides: map[string]int{CategoryHVAC: 45}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d, _ := c.Benchmark(CategoryHVAC); d != 45 {
		t.Errorf("override: got %d, want 45", d)
	}
	if d, _ := Default().Benchmark(CategoryHVAC); d != 30 {
		t.Errorf("overrides leaked into defaults: got %d", d)
	}
}

func TestNew_RejectsPreventiveBenchmarkOutsideAllowedSet(t *testing.T) {
	if _, err := New(Options{PreventiveBenchmark: 10}); err == nil {
		t.Fatal("expected a preventive benchmark error")
	}
	if _, err := New(Options{PreventiveBenchmark: 60}); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestDefaultBenchmarksAllowed(t *testing.T) {
	allowed := map[int]bool{}
	for _, d := range AllowedBenchmarks {
		allowed[d] = true
	}
	for cat, d := range DefaultBenchmarks {
		if !allowed[d] {
			t.Errorf("%s: benchmark %d not allowed", cat, d)
		}
	}
}

func TestApply(t *testing.T) {
	rows := []workorder.Record{
		{WorkOrder: workorder.WorkOrder{ID: 1, ProblemType: "HVAC|REPAIR"}},
		{WorkOrder: workorder.WorkOrder{ID: 2, ProblemType: "PREVENTIVE_HVAC"}},
		{WorkOrder: workorder.WorkOrder{ID: 3, ProblemType: "MYSTERY"}},
		{WorkOrder: workorder.WorkOrder{ID: 4, ProblemType: "DESIGN/RENOVATION"}},
		{WorkOrder: workorder.WorkOrder{ID: 5, ProblemType: "BUILDING PM"}},
	}
	out, gaps := Default().Apply(rows)

	if out[0].Category != CategoryHVAC || out[0].Benchmark == nil || *out[0].Benchmark != 30 || out[0].Preventive {
		t.Errorf("HVAC row: %+v", out[0])
	}
	if !out[1].Preventive || *out[1].Benchmark != PreventiveBenchmark {
		t.Errorf("preventive row: %+v", out[1])
	}
	if out[2].Categorized || out[2].Category != "" || out[2].Benchmark != nil {
		t.Errorf("unknown row should stay uncategorized: %+v", out[2])
	}
	if out[3].Category != "DESIGN" || out[3].Benchmark != nil {
		t.Errorf("DESIGN row should have no benchmark: %+v", out[3])
	}
	if !out[4].Preventive || out[4].Category != CategoryPreventive || *out[4].Benchmark != 21 {
		t.Errorf("building PM row: %+v", out[4])
	}

	if len(gaps) != 2 {
		t.Fatalf("gaps: got %d, want 2: %+v", len(gaps), gaps)
	}
	if gaps[0].ID != 3 || gaps[0].Reason != workorder.GapNoCategory {
		t.Errorf("gap 0: %+v", gaps[0])
	}
	if gaps[1].ID != 4 || gaps[1].Reason != workorder.GapNoBenchmark || gaps[1].Category != "DESIGN" {
		t.Errorf("gap 1: %+v", gaps[1])
	}
	if rows[0].Category != "" {
		t.Error("input rows were modified")
	}
}

func TestApply_CustomPreventiveBenchmark(t *testing.T) {
	c, err := New(Options{PreventiveBenchmark: 14, Preventive: []string{"GENERATOR PM"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, _ := c.Apply([]workorder.Record{
		{WorkOrder: workorder.WorkOrder{ID: 1, ProblemType: "GENERATOR PM"}},
		{WorkOrder: workorder.WorkOrder{ID: 2, ProblemType: "BUILDING PM"}},
	})
	if !out[0].Preventive || *out[0].Benchmark != 14 {
		t.Errorf("row 1: %+v", out[0])
	}
	if out[1].Preventive || *out[1].Benchmark != 21 {
		t.Errorf("row 2 keeps the category benchmark: %+v", out[1])
	}
}
