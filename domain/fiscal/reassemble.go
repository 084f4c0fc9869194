package fiscal

import (
	"time"

	"kpicentral/domain/workorder"
)

// Reassembly glues the date of a milestone timestamp to the clock value held in
// a separate raw column. Some source systems store the right date with a
// placeholder time and keep the real time elsewhere.
type Reassembly struct {
	Milestone  workorder.Milestone
	TimeColumn string
}

// ReassembleDateTime combines the date of datePart with the time of day in timePart.
// It returns nil when the date is absent or the time cannot be parsed.
func ReassembleDateTime(datePart *time.Time, timePart string) *time.Time {
	if datePart == nil {
		return nil
	}
	h, m, s, ns, err := workorder.ParseClock(timePart)
	if err != nil {
		return nil
	}
	t := time.Date(datePart.Year(), datePart.Month(), datePart.Day(), h, m, s, ns, datePart.Location())
	return &t
}

// ReassemblyReport counts the outcome per row across all rules.
type ReassemblyReport struct {
	Reassembled int `json:"reassembled"`
	PassThrough int `json:"pass_through"`
	Failed      int `json:"failed"`
}

// Reassemble applies each rule to copies of rows. Rows with an absent date pass
// through untouched; rows whose time is absent or unparseable lose the milestone
// timestamp so their duration ends up null instead of wrong.
func Reassemble(rows []workorder.Record, rules []Reassembly) ([]workorder.Record, ReassemblyReport) {
	var rep ReassemblyReport
	out := make([]workorder.Record, len(rows))
	for i, r := range rows {
		for _, rule := range rules {
			date := r.At(rule.Milestone)
			if date == nil {
				rep.PassThrough++
				continue
			}
			cell := r.Extra[rule.TimeColumn]
			var t *time.Time
			if cell.Valid {
				t = ReassembleDateTime(date, cell.String)
			}
			if t == nil {
				rep.Failed++
			} else {
				rep.Reassembled++
			}
			r.WorkOrder = r.WorkOrder.WithAt(rule.Milestone, t)
		}
		out[i] = r
	}
	return out, rep
}
