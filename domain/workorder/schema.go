package workorder

// Kind is the logical type a column is cast to.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
)

// NullPolicy says how an absent value is represented once normalization completes.
type NullPolicy int

const (
	// NativeNull keeps absent values absent.
	NativeNull NullPolicy = iota
	// SentinelNull rewrites absent values to FieldSpec.Sentinel.
	SentinelNull
)

// NullSentinel is the textual null marker used by the source systems. The
// supervisor column keeps it as a literal value.
const NullSentinel = "NULL"

// Column labels after normalization.
const (
	ColID          = "wr_id"
	ColProblemType = "problem_type"
	ColStatus      = "status"
	ColSupervisor  = "supervisor"
	ColNotes       = "cf_notes"
	ColRole        = "role_name"
)

// LegacyAliases are renamed before any other column handling.
var LegacyAliases = map[string]string{
	"prob_type": ColProblemType,
}

// TimestampColumns lists the accepted source labels per milestone, first match wins.
var TimestampColumns = map[string][]string{
	"requested": {"requested_dt", "date_requested"},
	"completed": {"completed_dt", "date_completed"},
	"closed":    {"date_closed", "closed_dt"},
}

// DefaultRequired is the set of columns whose absence is a SchemaError.
var DefaultRequired = []string{ColID, ColProblemType, ColStatus, ColSupervisor, ColNotes}

// DefaultIntColumns are the integer-like columns some source views carry.
var DefaultIntColumns = []string{
	"fy_request",
	"fy_complete",
	"fy_close",
	"days_since_request",
	"weekdays_complete_to_close",
	"weekdays_since_completion",
	"completion_benchmark",
	"closure_benchmark",
}

// DefaultBoolColumns are the flag columns some source views carry.
var DefaultBoolColumns = []string{
	"is_vendor_work",
	"not_completed_but_late",
	"not_closed_but_late",
	"is_on_time",
	"closed_on_time",
	"is_ratio_pm",
	"is_ratio_cm",
	"is_any_pm",
}

// FieldSpec declares how one column is typed and how its nulls are represented.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Null     NullPolicy
	Sentinel string
}

// Schema is the set of declared fields; columns not declared are untyped strings
// with NativeNull.
type Schema map[string]FieldSpec

// NewSchema declares the core fields plus the given integer and boolean columns.
func NewSchema(intCols, boolCols []string) Schema {
	s := Schema{
		ColID:          {Name: ColID, Kind: KindInt},
		ColProblemType: {Name: ColProblemType},
		ColStatus:      {Name: ColStatus},
		ColSupervisor:  {Name: ColSupervisor, Null: SentinelNull, Sentinel: NullSentinel},
		ColNotes:       {Name: ColNotes},
		ColRole:        {Name: ColRole},
	}
	for _, labels := range TimestampColumns {
		for _, l := range labels {
			s[l] = FieldSpec{Name: l, Kind: KindTime}
		}
	}
	for _, c := range intCols {
		s[c] = FieldSpec{Name: c, Kind: KindInt}
	}
	for _, c := range boolCols {
		s[c] = FieldSpec{Name: c, Kind: KindBool}
	}
	return s
}

// Spec returns the declared field or an untyped native-null string field.
func (s Schema) Spec(column string) FieldSpec {
	if f, ok := s[column]; ok {
		return f
	}
	return FieldSpec{Name: column}
}
