package interview

// Category groups related metrics for aggregation.
type Category string

const (
	CategoryHardSkills Category = "hard_skills"
	CategorySoftSkills Category = "soft_skills"
	CategoryThinking   Category = "thinking"
	CategoryMindset    Category = "mindset"
)

// Categories returns the four categories in report order.
func Categories() []Category {
	return []Category{CategoryHardSkills, CategorySoftSkills, CategoryThinking, CategoryMindset}
}

// CategoryWeights are the share (in points out of 100) of each category
// in the total score.
var CategoryWeights = map[Category]int{
	CategoryHardSkills: 30,
	CategorySoftSkills: 25,
	CategoryThinking:   25,
	CategoryMindset:    20,
}

// Score scale bounds.
const (
	MinScore      = 0.0
	MaxScore      = 10.0
	MidpointScore = 5.0
)

// MetricSet is the role-specific grouping of metric keys into categories.
type MetricSet struct {
	Role   Role
	Groups map[Category][]string
}

// Metrics returns every metric key in category order.
func (m MetricSet) Metrics() []string {
	var out []string
	for _, c := range Categories() {
		out = append(out, m.Groups[c]...)
	}
	return out
}

// CategoryOf returns the category a metric belongs to.
func (m MetricSet) CategoryOf(metric string) (Category, bool) {
	for c, keys := range m.Groups {
		for _, k := range keys {
			if k == metric {
				return c, true
			}
		}
	}
	return "", false
}

var standardGroups = map[Category][]string{
	CategoryHardSkills: {"expertise", "methodology", "tools_proficiency"},
	CategorySoftSkills: {"articulation", "self_awareness", "conflict_handling"},
	CategoryThinking:   {"depth", "structure", "systems_thinking", "creativity"},
	CategoryMindset:    {"honesty", "growth_orientation"},
}

var projectManagerGroups = map[Category][]string{
	CategoryHardSkills: {"expertise", "methodology", "planning"},
	CategorySoftSkills: {"articulation", "self_awareness", "conflict_handling"},
	CategoryThinking:   {"depth", "structure", "systems_thinking", "prioritization"},
	CategoryMindset:    {"honesty", "growth_orientation"},
}

// MetricSetFor returns the metric set used to score answers for a role.
// Unknown roles get the standard set.
func MetricSetFor(r Role) MetricSet {
	if r == RoleProjectManager {
		return MetricSet{Role: r, Groups: projectManagerGroups}
	}
	return MetricSet{Role: r, Groups: standardGroups}
}

// MetricDescriptions are one-line definitions injected into analysis prompts.
var MetricDescriptions = map[string]string{
	"expertise":          "depth of domain knowledge and ability to solve hard professional problems",
	"methodology":        "command of frameworks and a systematic way of working",
	"tools_proficiency":  "fluency with professional tools",
	"planning":           "ability to plan scope, schedule and dependencies",
	"articulation":       "clear, structured and persuasive communication",
	"self_awareness":     "honest view of own strengths and weaknesses",
	"conflict_handling":  "ability to resolve conflicts constructively",
	"depth":              "analysis beyond the obvious, finding root causes",
	"structure":          "logical, well-decomposed reasoning",
	"systems_thinking":   "seeing the whole system and its interconnections",
	"creativity":         "generating non-obvious ideas",
	"prioritization":     "making explicit tradeoffs under constraints",
	"honesty":            "candor and willingness to admit mistakes",
	"growth_orientation": "active learning from experience",
}
