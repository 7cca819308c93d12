package llm

import (
	"cmp"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// Attribution headers OpenRouter shows in its usage dashboard.
	openRouterReferer = "https://github.com/abhisek/skillprobe"
	openRouterTitle   = "skillprobe"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible API. Model
// IDs are vendor-prefixed ("anthropic/claude-3-haiku") and sent unchanged.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = cmp.Or(cfg.BaseURL, defaultOpenRouterBaseURL)
	conf.HTTPClient = &http.Client{Transport: attributionTransport{next: http.DefaultTransport}}
	return &OpenRouterProvider{OpenAIProvider: newChatProvider(conf, cfg.Model)}, nil
}

type attributionTransport struct {
	next http.RoundTripper
}

func (t attributionTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("HTTP-Referer", openRouterReferer)
	r.Header.Set("X-Title", openRouterTitle)
	return t.next.RoundTrip(r)
}
