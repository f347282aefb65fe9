package models

import "strings"

// Framework describes one questionnaire family and the scoring rules that
// parameterize evaluation, aggregation and answer validation for it.
type Framework struct {
	Name          string
	GroupingKey   string
	GroupingLabel string
	BaselineMark  int
	MaxMark       int
	AllowReopen   bool
}

const (
	FrameworkNist     = "nist"
	FrameworkHipaa    = "hipaa"
	FrameworkC2m2     = "c2m2"
	FrameworkMaturity = "maturity"
)

var frameworks = map[string]Framework{
	FrameworkNist: {
		Name:          FrameworkNist,
		GroupingKey:   "function",
		GroupingLabel: "functionName",
		BaselineMark:  1,
		MaxMark:       5,
	},
	FrameworkHipaa: {
		Name:          FrameworkHipaa,
		GroupingKey:   "category",
		GroupingLabel: "category",
		BaselineMark:  1,
		MaxMark:       5,
	},
	FrameworkC2m2: {
		Name:          FrameworkC2m2,
		GroupingKey:   "domain",
		GroupingLabel: "domainName",
		BaselineMark:  1,
		MaxMark:       3,
	},
	FrameworkMaturity: {
		Name:          FrameworkMaturity,
		GroupingKey:   "domain",
		GroupingLabel: "domainName",
		BaselineMark:  1,
		MaxMark:       5,
		AllowReopen:   true,
	},
}

// FrameworkByName resolves a framework descriptor from a route parameter.
func FrameworkByName(name string) (Framework, bool) {
	framework, ok := frameworks[strings.ToLower(strings.TrimSpace(name))]
	return framework, ok
}

// FrameworkNames lists the registered framework identifiers.
func FrameworkNames() []string {
	names := make([]string, 0, len(frameworks))
	for name := range frameworks {
		names = append(names, name)
	}
	return names
}

// ValidMark reports whether a submitted mark is inside the framework's range.
func (f Framework) ValidMark(mark int) bool {
	return mark >= 0 && mark <= f.MaxMark
}
