package llm

import "context"

// Provider sends one prompt to a model vendor and returns its text.
// Vendor adapters, the retry and logging decorators and MockProvider all
// implement it. Output is never parsed here; callers own extraction.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single free-text prompt.
type Request struct {
	System string

	// Messages is the conversation. Gateway calls always send exactly one
	// user message.
	Messages []Message

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the vendor default in place.
	Temperature float64
}

// Message is one entry of a Request conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason is the vendor finish reason normalized across adapters.
type StopReason string

const (
	StopEnd StopReason = "end"

	// StopMaxTokens means the text was cut off at Request.MaxTokens.
	StopMaxTokens StopReason = "max_tokens"
)

// Response is the model's raw text plus accounting.
type Response struct {
	Text       string
	Usage      Usage
	Model      string
	StopReason StopReason
}

// Truncated reports whether the model stopped at the token limit.
func (r *Response) Truncated() bool {
	return r.StopReason == StopMaxTokens
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
