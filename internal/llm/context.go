package llm

import "context"

type purposeKey struct{}

// unlabeledPurpose is reported for calls made without WithPurpose.
const unlabeledPurpose = "unknown"

// WithPurpose labels every LLM call made with ctx, e.g. "answer-analysis".
// The label is stored on request events and used as a metrics dimension.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return unlabeledPurpose
}
