package fiscal

import (
	"database/sql"
	"testing"
	"time"

	"kpicentral/domain/workorder"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func ptr(t time.Time) *time.Time { return &t }

func TestFiscalYearOf(t *testing.T) {
	cases := []struct {
		at   time.Time
		want int
	}{
		{day(2020, time.January, 1), 2020},
		{day(2020, time.June, 30), 2020},
		{day(2020, time.July, 1), 2021},
		{day(2020, time.December, 31), 2021},
		{day(2021, time.January, 1), 2021},
		{day(2021, time.June, 15), 2021},
		{day(2021, time.July, 1), 2022},
		{day(2021, time.December, 31), 2022},
	}
	for _, c := range cases {
		if got := FiscalYearOf(c.at); got != c.want {
			t.Errorf("FiscalYearOf(%s): got %d, want %d", c.at.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestBounds(t *testing.T) {
	start, end := Bounds(2022, time.UTC)
	if !start.Equal(day(2021, time.July, 1)) || !end.Equal(day(2022, time.July, 1)) {
		t.Errorf("Bounds(2022): got %v - %v", start, end)
	}
	if FiscalYearOf(start) != 2022 || FiscalYearOf(end.Add(-time.Nanosecond)) != 2022 {
		t.Error("bounds disagree with FiscalYearOf")
	}
}

func TestDurationDays(t *testing.T) {
	if got := DurationDays(day(2021, time.June, 15), day(2021, time.July, 1)); got != 16.0 {
		t.Errorf("got %v, want 16", got)
	}
	start := day(2021, time.March, 1)
	if got := DurationDays(start, start.Add(36*time.Hour)); got != 1.5 {
		t.Errorf("got %v, want 1.5", got)
	}
	if got := DurationDays(start, start.Add(-8*time.Hour)); got != -0.33 {
		t.Errorf("negative duration: got %v, want -0.33", got)
	}
}

func TestAssignFiscalYearAndDurations(t *testing.T) {
	rows := []workorder.Record{
		{WorkOrder: workorder.WorkOrder{ID: 1, Requested: ptr(day(2021, time.June, 15)), Completed: ptr(day(2021, time.July, 1))}},
		{WorkOrder: workorder.WorkOrder{ID: 2, Requested: ptr(day(2021, time.June, 15))}},
	}
	byRequest := AssignFiscalYear(rows, workorder.Requested)
	if *byRequest[0].FiscalYear != 2021 {
		t.Errorf("anchored on request: got %d, want 2021", *byRequest[0].FiscalYear)
	}
	byCompletion := AssignFiscalYear(rows, workorder.Completed)
	if *byCompletion[0].FiscalYear != 2022 {
		t.Errorf("anchored on completion: got %d, want 2022", *byCompletion[0].FiscalYear)
	}
	if byCompletion[1].FiscalYear != nil {
		t.Errorf("missing anchor should leave fiscal year unset")
	}
	if rows[0].FiscalYear != nil {
		t.Error("input rows were modified")
	}

	withDur := AttachDurations(rows, workorder.Requested, workorder.Completed)
	if withDur[0].DurationDays == nil || *withDur[0].DurationDays != 16 {
		t.Errorf("duration: got %v", withDur[0].DurationDays)
	}
	if withDur[1].DurationDays != nil {
		t.Errorf("missing end should leave duration unset")
	}
}

func TestSplitFiscalYears(t *testing.T) {
	rows := []workorder.Record{
		{WorkOrder: workorder.WorkOrder{ID: 1, Requested: ptr(day(2021, time.March, 1)), Closed: ptr(day(2021, time.May, 1))}},
		{WorkOrder: workorder.WorkOrder{ID: 2, Requested: ptr(day(2021, time.June, 20)), Closed: ptr(day(2021, time.July, 5))}},
		{WorkOrder: workorder.WorkOrder{ID: 3, Requested: ptr(day(2021, time.June, 20))}},
	}
	p := SplitFiscalYears(rows, workorder.Requested, workorder.Closed)
	if len(p.Within) != 1 || p.Within[0].ID != 1 {
		t.Errorf("within: %+v", p.Within)
	}
	if len(p.Straddling) != 1 || p.Straddling[0].ID != 2 {
		t.Errorf("straddling: %+v", p.Straddling)
	}
	if len(p.Undetermined) != 1 || p.Undetermined[0].ID != 3 {
		t.Errorf("undetermined: %+v", p.Undetermined)
	}
}

func TestReassembleDateTime(t *testing.T) {
	date := time.Date(2022, time.February, 3, 0, 0, 0, 0, time.UTC)
	got := ReassembleDateTime(&date, "14:25:30")
	if got == nil || !got.Equal(time.Date(2022, time.February, 3, 14, 25, 30, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}
	if ReassembleDateTime(nil, "14:25") != nil {
		t.Error("absent date should give nil")
	}
	if ReassembleDateTime(&date, "late") != nil {
		t.Error("unparseable time should give nil")
	}
}

func TestReassemble(t *testing.T) {
	date := day(2022, time.February, 3)
	mk := func(id int64, completed *time.Time, clock string) workorder.Record {
		extra := map[string]sql.NullString{}
		if clock != "" {
			extra["time_completed"] = workorder.Str(clock)
		}
		return workorder.Record{WorkOrder: workorder.WorkOrder{ID: id, Completed: completed, Extra: extra}}
	}
	rows := []workorder.Record{
		mk(1, &date, "09:15:00"),
		mk(2, nil, "09:15:00"),
		mk(3, &date, ""),
		mk(4, &date, "garbage"),
	}
	out, rep := Reassemble(rows, []Reassembly{{Milestone: workorder.Completed, TimeColumn: "time_completed"}})

	if rep.Reassembled != 1 || rep.PassThrough != 1 || rep.Failed != 2 {
		t.Errorf("report: %+v", rep)
	}
	if out[0].Completed == nil || out[0].Completed.Hour() != 9 || out[0].Completed.Minute() != 15 {
		t.Errorf("row 1: got %v", out[0].Completed)
	}
	if out[1].Completed != nil {
		t.Errorf("row 2 should pass through as absent")
	}
	if out[2].Completed != nil || out[3].Completed != nil {
		t.Errorf("rows without a usable time should lose the timestamp")
	}
	if rows[0].Completed.Hour() != 0 {
		t.Error("input rows were modified")
	}
}
