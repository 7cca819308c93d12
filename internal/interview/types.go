package interview

import (
	"fmt"
	"time"
)

// DefaultTotalQuestions is the number of turns in a full interview.
const DefaultTotalQuestions = 10

// Role is the professional domain the candidate is interviewed for.
type Role string

const (
	RoleDesigner       Role = "designer"
	RoleProduct        Role = "product"
	RoleProjectManager Role = "project_manager"
)

// AllRoles returns the supported roles in display order.
func AllRoles() []Role {
	return []Role{RoleDesigner, RoleProduct, RoleProjectManager}
}

// Valid reports whether r is a supported role.
func (r Role) Valid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable role name.
func (r Role) DisplayName() string {
	switch r {
	case RoleDesigner:
		return "Designer"
	case RoleProduct:
		return "Product Manager"
	case RoleProjectManager:
		return "Project Manager"
	default:
		return string(r)
	}
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Experience is the candidate's declared experience tier.
// Tiers are ordered: junior < middle < senior < lead.
type Experience string

const (
	ExperienceJunior Experience = "junior"
	ExperienceMiddle Experience = "middle"
	ExperienceSenior Experience = "senior"
	ExperienceLead   Experience = "lead"
)

// AllExperiences returns the tiers in ascending order.
func AllExperiences() []Experience {
	return []Experience{ExperienceJunior, ExperienceMiddle, ExperienceSenior, ExperienceLead}
}

// Rank returns the ordinal of the tier (junior = 0), or -1 if unknown.
func (e Experience) Rank() int {
	for i, known := range AllExperiences() {
		if e == known {
			return i
		}
	}
	return -1
}

// Valid reports whether e is a known tier.
func (e Experience) Valid() bool { return e.Rank() >= 0 }

// ParseExperience converts a string into an Experience.
func ParseExperience(s string) (Experience, error) {
	e := Experience(s)
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidExperience, s)
	}
	return e, nil
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Provenance describes how an AnalysisResult was obtained.
type Provenance string

const (
	ProvenanceClean     Provenance = "parsed_clean"
	ProvenanceRecovered Provenance = "parsed_recovered"
	ProvenanceFallback  Provenance = "fallback_default"
)

// Turn is one question/answer exchange. Immutable once appended.
type Turn struct {
	Index       int       `json:"index"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Coercion records a metric value that had to be replaced by the midpoint.
type Coercion struct {
	Metric string `json:"metric"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// AnalysisResult is the structured judgment of one turn.
type AnalysisResult struct {
	Scores     map[string]float64 `json:"scores"`
	Patterns   []string           `json:"patterns"`
	Provenance Provenance         `json:"provenance"`
	Coerced    []Coercion         `json:"coerced,omitempty"`
	RawText    string             `json:"raw_text"`
	Insights   []string           `json:"insights,omitempty"`
	Gaps       []string           `json:"gaps,omitempty"`
	Hypothesis string             `json:"hypothesis,omitempty"`

	// Truncated marks scores salvaged from a reply that hit the token
	// limit. Such results are never parsed_clean.
	Truncated bool `json:"truncated,omitempty"`
}

// Degraded reports whether the result is the default substitute rather
// than a model judgment.
func (a AnalysisResult) Degraded() bool {
	return a.Provenance == ProvenanceFallback
}

// MeanScore returns the mean across all metric scores, or 0 when empty.
func (a AnalysisResult) MeanScore() float64 {
	if len(a.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range a.Scores {
		sum += v
	}
	return sum / float64(len(a.Scores))
}

// Session is one interview instance.
type Session struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Role       Role       `json:"role"`
	Experience Experience `json:"experience"`
	Status     Status     `json:"status"`

	Turns    []Turn           `json:"turns"`
	Analyses []AnalysisResult `json:"analyses"`

	// TotalScore is set exactly once, on transition to completed.
	TotalScore *int `json:"total_score,omitempty"`

	// CurrentQuestion is the question presented and awaiting an answer.
	// Empty once the session leaves in_progress.
	CurrentQuestion string `json:"current_question,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NextTurnIndex returns the 1-based index of the turn awaiting an answer.
func (s *Session) NextTurnIndex() int {
	return len(s.Turns) + 1
}

// Validate checks the structural invariants of a session.
func (s *Session) Validate(totalQuestions int) error {
	if len(s.Analyses) > len(s.Turns) {
		return fmt.Errorf("session %s: %d analyses for %d turns", s.ID, len(s.Analyses), len(s.Turns))
	}
	if len(s.Turns) > totalQuestions {
		return fmt.Errorf("session %s: %d turns exceeds limit %d", s.ID, len(s.Turns), totalQuestions)
	}
	for i, t := range s.Turns {
		if t.Index != i+1 {
			return fmt.Errorf("session %s: turn %d has index %d", s.ID, i+1, t.Index)
		}
	}
	completed := s.Status == StatusCompleted
	if completed != (s.TotalScore != nil) {
		return fmt.Errorf("session %s: total score presence does not match status %s", s.ID, s.Status)
	}
	if completed && s.CompletedAt == nil {
		return fmt.Errorf("session %s: completed without completion time", s.ID)
	}
	return nil
}
