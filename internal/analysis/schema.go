package analysis

import "github.com/abhisek/skillprobe/internal/llm"

// AnalysisSchema is the minimal shape an extracted analysis record must
// have. Metric values and the optional list fields are read leniently
// afterwards so that one bad value degrades a single field rather than the
// whole analysis.
var AnalysisSchema = &llm.Schema{
	Name:        "answer-analysis",
	Description: "Per-metric assessment of one interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":        "object",
				"description": "Metric name to score on a 0-10 scale",
			},
		},
		"required": []any{"scores"},
	},
}
