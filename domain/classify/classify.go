// Package classify maps raw problem-type codes onto primary categories and
// completion benchmarks, and separates preventive from corrective work.
//
// Rules are data: an ordered table evaluated first-match-wins. A code that no
// rule matches stays uncategorized; callers report it instead of guessing.
package classify

import (
	"fmt"
	"strings"

	lo "github.com/samber/lo"

	"kpicentral/domain/workorder"
)

// MatchKind orders rules: every Exact rule is evaluated before any Prefix rule.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchPrefix
)

// Rule assigns Category to the codes it matches. RoleFilter, when set, must
// also accept the role name of the work order.
type Rule struct {
	Kind       MatchKind
	Codes      []string
	Category   string
	RoleFilter func(role string) bool
}

// Exact matches any of codes exactly.
func Exact(category string, codes ...string) Rule {
	return Rule{Kind: MatchExact, Codes: codes, Category: category}
}

// ExactForRole matches any of codes exactly when role also satisfies filter.
func ExactForRole(category string, filter func(string) bool, codes ...string) Rule {
	return Rule{Kind: MatchExact, Codes: codes, Category: category, RoleFilter: filter}
}

// Prefix matches any code starting with prefix.
func Prefix(category, prefix string) Rule {
	return Rule{Kind: MatchPrefix, Codes: []string{prefix}, Category: category}
}

// Matches reports whether the rule applies to a problem type and role.
func (r Rule) Matches(problemType, role string) bool {
	if r.RoleFilter != nil && !r.RoleFilter(role) {
		return false
	}
	switch r.Kind {
	case MatchPrefix:
		return lo.SomeBy(r.Codes, func(p string) bool { return strings.HasPrefix(problemType, p) })
	default:
		return lo.Contains(r.Codes, problemType)
	}
}

func isExternalRole(role string) bool { return strings.Contains(role, ExternalRoleMarker) }

func isInternalRole(role string) bool { return !isExternalRole(role) }

// Classifier holds the rule table, benchmark table and preventive list.
type Classifier struct {
	rules               []Rule
	benchmarks          map[string]int
	preventive          []string
	preventiveBenchmark int
}

// Options customizes a Classifier. Zero values fall back to the defaults.
type Options struct {
	Rules               []Rule
	BenchmarkOverrides  map[string]int
	Preventive          []string
	PreventiveBenchmark int
}

// New validates the rule ordering and benchmark values and builds a Classifier.
func New(opts Options) (*Classifier, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	prefixSeen := false
	for i, r := range rules {
		if r.Kind == MatchPrefix {
			prefixSeen = true
			continue
		}
		if prefixSeen {
			return nil, fmt.Errorf("classify: exact rule %d (%s) follows a prefix rule", i, r.Category)
		}
	}

	benchmarks := lo.Assign(DefaultBenchmarks, opts.BenchmarkOverrides)
	for cat, days := range benchmarks {
		if !lo.Contains(AllowedBenchmarks, days) {
			return nil, fmt.Errorf("classify: benchmark %d for %q is not one of %v", days, cat, AllowedBenchmarks)
		}
	}
	pmBenchmark := opts.PreventiveBenchmark
	if pmBenchmark == 0 {
		pmBenchmark = PreventiveBenchmark
	}
	if !lo.Contains(AllowedBenchmarks, pmBenchmark) {
		return nil, fmt.Errorf("classify: preventive benchmark %d is not one of %v", pmBenchmark, AllowedBenchmarks)
	}
	preventive := opts.Preventive
	if preventive == nil {
		preventive = DefaultPreventive
	}
	return &Classifier{
		rules:               rules,
		benchmarks:          benchmarks,
		preventive:          preventive,
		preventiveBenchmark: pmBenchmark,
	}, nil
}

// Default returns a Classifier built from the default tables.
func Default() *Classifier {
	c, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return c
}

// Primary returns the category of a problem type; ok is false when no rule matches.
func (c *Classifier) Primary(problemType, role string) (string, bool) {
	r, ok := lo.Find(c.rules, func(r Rule) bool { return r.Matches(problemType, role) })
	if !ok {
		return "", false
	}
	return r.Category, true
}

// Benchmark returns the allowed completion days for a category.
func (c *Classifier) Benchmark(category string) (int, bool) {
	d, ok := c.benchmarks[category]
	return d, ok
}

// IsPreventive reports whether the problem type or its category is on the preventive list.
func (c *Classifier) IsPreventive(problemType, category string) bool {
	return lo.Contains(c.preventive, problemType) || (category != "" && lo.Contains(c.preventive, category))
}

// Apply returns classified copies of rows together with the gaps found.
// Preventive rows always get the preventive benchmark.
func (c *Classifier) Apply(rows []workorder.Record) ([]workorder.Record, []workorder.ClassificationGap) {
	var gaps []workorder.ClassificationGap
	out := lo.Map(rows, func(r workorder.Record, _ int) workorder.Record {
		r.Category, r.Categorized = c.Primary(r.ProblemType, r.Role)
		r.Preventive = c.IsPreventive(r.ProblemType, r.Category)
		r.Benchmark = nil
		switch {
		case r.Preventive:
			r.Benchmark = lo.ToPtr(c.preventiveBenchmark)
		case !r.Categorized:
			gaps = append(gaps, workorder.ClassificationGap{ID: r.ID, ProblemType: r.ProblemType, Reason: workorder.GapNoCategory})
		default:
			if d, ok := c.Benchmark(r.Category); ok {
				r.Benchmark = lo.ToPtr(d)
			} else {
				gaps = append(gaps, workorder.ClassificationGap{ID: r.ID, ProblemType: r.ProblemType, Category: r.Category, Reason: workorder.GapNoBenchmark})
			}
		}
		return r
	})
	return out, gaps
}
