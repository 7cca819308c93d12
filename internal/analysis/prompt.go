package analysis

import (
	"bytes"
	"text/template"

	"github.com/abhisek/skillprobe/internal/interview"
)

const analysisSystemPrompt = `You are an experienced hiring manager assessing one answer from a structured competency interview.

Instructions:
- Score every listed metric on a 0-10 scale (0 = no evidence, 5 = typical, 10 = exceptional).
- Judge only what the answer shows. Vague or generic answers score low on depth and expertise.
- List short behavioral pattern tags you observe (e.g. "blames-others", "data-driven").
- Reply with a single JSON object and nothing else:
{"scores": {"<metric>": <number>, ...}, "patterns": [...], "key_insights": [...], "gaps": [...], "hypothesis": "..."}`

type promptMetric struct {
	Key         string
	Description string
}

type promptData struct {
	Role       string
	Experience interview.Experience
	Question   string
	Answer     string
	Metrics    []promptMetric
}

var analysisUserTemplate = template.Must(template.New("analysis").Parse(`Role: {{.Role}}
Declared experience: {{.Experience}}

Question:
{{.Question}}

Candidate's answer:
{{.Answer}}

Metrics to score:
{{range .Metrics}}- {{.Key}}: {{.Description}}
{{end}}`))

func buildAnalysisMessage(in Input, set interview.MetricSet) (string, error) {
	data := promptData{
		Role:       in.Role.DisplayName(),
		Experience: in.Experience,
		Question:   in.Question,
		Answer:     in.Answer,
	}
	for _, m := range set.Metrics() {
		data.Metrics = append(data.Metrics, promptMetric{
			Key:         m,
			Description: interview.MetricDescriptions[m],
		})
	}

	var buf bytes.Buffer
	if err := analysisUserTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
