package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenRouterProvider_SendsAttributionAndRawModel(t *testing.T) {
	var title, referer, auth string
	var got chatRequest
	reply := chatReply("stop", "Which trade-off would you revisit?")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		referer = r.Header.Get("HTTP-Referer")
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		reply(w, r)
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "anthropic/claude-3-haiku",
		BaseURL: server.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Next question."}},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if title != openRouterTitle || referer != openRouterReferer {
		t.Errorf("attribution headers = %q, %q", title, referer)
	}
	if auth != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", auth)
	}
	if got.Model != "anthropic/claude-3-haiku" || p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model rewritten: request %q, provider %q", got.Model, p.ModelID())
	}
	if resp.Text != "Which trade-off would you revisit?" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestNewOpenRouterProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "meta-llama/llama-3-8b"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
