package classify

// Categories produced by the default rule table.
const (
	CategoryHVAC          = "HVAC"
	CategoryPreventive    = "PREVENTIVE"
	CategoryElectrical    = "ELECTRICAL"
	CategoryEnvironmental = "ENVIRONMENTAL"
	CategoryPlumbing      = "PLUMBING"
	CategorySecurity      = "SECURITY SYSTEMS"
	CategoryService       = "SERVICE"
	CategoryOtherExternal = "OTHER-EXTERNAL"
	CategoryOtherInternal = "OTHER-INTERNAL"
)

// ExternalRoleMarker in a role name means an external gatekeeper owns the request.
const ExternalRoleMarker = "GATEKEEPER"

// leaveAloneTypes are their own category.
var leaveAloneTypes = []string{
	"AIR QUALITY",
	"APPLIANCE",
	"CEILTILE",
	"DUCT CLEANING",
	"ELEVATOR",
	"FENCE_GATE",
	"FIRE SUPPRESSION-PROTECTION",
	"FLOOR",
	"LOCK",
	"OVERHDDOOR",
	"ROOF",
	"SNOW_REMOVAL",
	"WINDOW",
}

var residualTypes = []string{"OTHER", "RAMPS", "STEPS", "RAILSTAIRSRAMP"}

// DefaultRules is the ordered rule table. Exact rules come first; prefix rules
// only run once every exact rule has failed.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(leaveAloneTypes)+24)
	for _, t := range leaveAloneTypes {
		rules = append(rules, Exact(t, t))
	}
	rules = append(rules,
		Exact(CategoryHVAC,
			"BOILER",
			"CHILLERS",
			"COOLING TOWERS",
			"HVAC|INFRASTRUCTURE",
			"HVAC INFRASTRUCTURE",
			"HVAC|HEATING OIL",
			"HVAC|INSPECTION",
			"HVAC|REPAIR",
			"HVAC|REPLACEMENT",
			"HVAC",
		),
		Exact(CategoryPreventive,
			"BUILDING INTERIOR INSPECTION",
			"BUILDING PM",
			"GENERATOR PM",
			"HVAC|PM",
			"PREVENTIVE MAINT",
			"INSPECTION",
			"FUEL INSPECTION",
			"PREVENTIVE_GENERAL",
			"PREVENTIVE_HVAC",
		),
		Exact("BATHROOM", "BATHROOM_FIXT"),
		Exact("BUILDING", "BUILDING EXTERIOR"),
		Exact("CARPENTRY", "CARPENTRY", "WALL"),
		Exact("DELIVERY", "DELIVERY", "_DELIVERY"),
		Exact("DESIGN", "DESIGN/RENOVATION"),
		Exact("DOOR", "PEDESTRIAN DOORS", "DOOR"),
		Exact(CategoryElectrical, "OUTLETS"),
		Exact(CategoryEnvironmental, "ASBESTOS"),
		Exact("LANDSCAPING", "LAWN", "LANDSCAPING"),
		Exact("PAINTING", "PAINT", "PAINTING"),
		ExactForRole(CategoryOtherExternal, isExternalRole, residualTypes...),
		ExactForRole(CategoryOtherInternal, isInternalRole, residualTypes...),
		Prefix(CategoryElectrical, "ELEC"),
		Prefix(CategoryEnvironmental, "ENVIR"),
		Prefix(CategoryPlumbing, "PLUMB"),
		Prefix(CategorySecurity, "SECURITY SYSTEMS"),
		Prefix(CategoryService, "SERV"),
	)
	return rules
}

// DefaultBenchmarks maps categories to the number of days allowed for completion.
// Categories absent from the table are not benchmarked.
var DefaultBenchmarks = map[string]int{
	"AIR QUALITY":                 14,
	"APPLIANCE":                   21,
	"BATHROOM":                    14,
	"BUILDING":                    45,
	"CARPENTRY":                   30,
	"CEILTILE":                    30,
	"DELIVERY":                    7,
	"DOOR":                        14,
	"DUCT CLEANING":               45,
	"ELEVATOR":                    7,
	"FENCE_GATE":                  30,
	"FIRE SUPPRESSION-PROTECTION": 7,
	"FLOOR":                       30,
	"LANDSCAPING":                 21,
	"LOCK":                        7,
	"OVERHDDOOR":                  14,
	"PAINTING":                    45,
	"ROOF":                        30,
	"SNOW_REMOVAL":                7,
	"WINDOW":                      30,
	CategoryHVAC:                  30,
	CategoryPreventive:            21,
	CategoryElectrical:            14,
	CategoryEnvironmental:         30,
	CategoryPlumbing:              14,
	CategorySecurity:              14,
	CategoryService:               21,
	CategoryOtherExternal:         60,
	CategoryOtherInternal:         30,
}

// AllowedBenchmarks is the closed set benchmark values are drawn from.
var AllowedBenchmarks = []int{7, 14, 21, 30, 45, 60}

// DefaultPreventive lists the problem-type or category codes that mark preventive work.
var DefaultPreventive = []string{CategoryPreventive, "PREVENTIVE_GENERAL", "PREVENTIVE_HVAC"}

// PreventiveBenchmark replaces the category benchmark for all preventive work.
const PreventiveBenchmark = 21
