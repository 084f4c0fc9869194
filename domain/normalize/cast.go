package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"kpicentral/domain/workorder"
)

var (
	errNotIntegral = errors.New("not an integral number")
	errOutOfRange  = errors.New("integer out of range")
)

// ParseInt accepts plain integers and integral floats such as "12.0".
func ParseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotIntegral
	}
	if f < -(1<<63) || f >= 1<<63 {
		return 0, errOutOfRange
	}
	return int64(f), nil
}

// ParseBool accepts the usual truthy and falsy spellings, case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes", "y", "1.0":
		return true, nil
	case "false", "f", "0", "no", "n", "0.0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

// idKey canonicalizes an identifier cell so "101" and "101.0" group together.
func idKey(s string) string {
	if n, err := ParseInt(s); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// cast types every row. Repeats of an identifier after the first are collapsed
// and counted.
func cast(f *frame, schema workorder.Schema) (*workorder.Table, int, error) {
	out := &workorder.Table{Columns: append([]string(nil), f.columns...)}
	seen := map[int64]struct{}{}
	collapsed := 0

	tsCols := map[workorder.Milestone]string{}
	for m, labels := range workorder.TimestampColumns {
		for _, l := range labels {
			if _, ok := f.idx[l]; ok {
				tsCols[workorder.Milestone(m)] = l
				break
			}
		}
	}

	for i, r := range f.rows {
		locate := func(column, value string, err error) error {
			return &workorder.DataQualityError{Row: f.origin[i], Column: column, Value: value, Err: err}
		}
		wo := workorder.WorkOrder{
			Ints:  map[string]*int64{},
			Bools: map[string]bool{},
			Extra: map[string]workorderCell{},
		}

		idCell := f.cell(i, workorder.ColID)
		id, err := ParseInt(idCell.String)
		if err != nil {
			return nil, 0, locate(workorder.ColID, idCell.String, err)
		}
		wo.ID = id
		wo.ProblemType = f.cell(i, workorder.ColProblemType).String
		wo.Status = f.cell(i, workorder.ColStatus).String
		wo.Supervisor = f.cell(i, workorder.ColSupervisor).String
		wo.Notes = f.cell(i, workorder.ColNotes).String
		wo.Role = f.cell(i, workorder.ColRole).String

		for m, col := range tsCols {
			v := f.cell(i, col)
			if !v.Valid {
				continue
			}
			t, err := workorder.ParseTimestamp(v.String)
			if err != nil {
				return nil, 0, locate(col, v.String, err)
			}
			wo = wo.WithAt(m, &t)
		}

		for j, col := range f.columns {
			v := r[j]
			switch spec := schema.Spec(col); spec.Kind {
			case workorder.KindInt:
				if col == workorder.ColID {
					continue
				}
				if !v.Valid {
					wo.Ints[col] = nil
					continue
				}
				n, err := ParseInt(v.String)
				if err != nil {
					return nil, 0, locate(col, v.String, err)
				}
				wo.Ints[col] = &n
			case workorder.KindBool:
				if !v.Valid {
					return nil, 0, locate(col, "", errors.New("missing value in boolean column"))
				}
				b, err := ParseBool(v.String)
				if err != nil {
					return nil, 0, locate(col, v.String, err)
				}
				wo.Bools[col] = b
			case workorder.KindTime:
				wo.Extra[col] = v
			default:
				switch col {
				case workorder.ColProblemType, workorder.ColStatus, workorder.ColSupervisor, workorder.ColNotes, workorder.ColRole:
				default:
					wo.Extra[col] = v
				}
			}
		}

		if _, dup := seen[id]; dup {
			collapsed++
			continue
		}
		seen[id] = struct{}{}
		out.Rows = append(out.Rows, wo)
	}
	return out, collapsed, nil
}
