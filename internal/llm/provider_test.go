package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReplaysScript(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: `{"scores":{"depth":6}}`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: `{"scores":`, StopReason: StopMaxTokens},
	)

	first, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Text != `{"scores":{"depth":6}}` || first.Usage.InputTokens != 10 {
		t.Fatalf("unexpected first reply: %+v", first)
	}
	if first.StopReason != StopEnd {
		t.Fatalf("expected default stop reason %q, got %q", StopEnd, first.StopReason)
	}

	second, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Truncated() {
		t.Fatalf("expected scripted truncation, got %q", second.StopReason)
	}
	if mock.Pending() != 0 {
		t.Fatalf("expected script consumed, %d left", mock.Pending())
	}
}

func TestMockProvider_ExhaustedScriptIsUnavailable(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCallsAndAppends(t *testing.T) {
	mock := NewMockProvider()
	mock.AddResponse(MockResponse{Err: &ErrRateLimit{}})
	mock.AddResponse(MockResponse{Text: "ok"})

	_, err := mock.Generate(context.Background(), Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hello"}}})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
	resp, err := mock.Generate(context.Background(), Request{})
	if err != nil || resp.Text != "ok" {
		t.Fatalf("resp = %+v, err = %v", resp, err)
	}
	if mock.CallCount() != 2 || mock.Calls[0].System != "sys" {
		t.Fatalf("unexpected calls: %+v", mock.Calls)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	if p := PurposeFrom(WithPurpose(ctx, "")); p != "unknown" {
		t.Fatalf("empty label should read as 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "question-gen")
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SKILLPROBE_LLM_PROVIDER", "openai")
	t.Setenv("SKILLPROBE_OPENAI_API_KEY", "sk-env")
	t.Setenv("SKILLPROBE_LLM_TIMEOUT", "12s")
	t.Setenv("SKILLPROBE_LLM_MAX_CONCURRENCY", "3")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" {
		t.Fatalf("expected provider openai, got %q", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("expected key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Timeout != 12*time.Second {
		t.Fatalf("expected 12s timeout, got %s", cfg.Timeout)
	}
	if cfg.MaxConcurrency != 3 {
		t.Fatalf("expected concurrency 3, got %d", cfg.MaxConcurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "openrouter without key",
			cfg:     Config{Provider: "openrouter"},
			wantErr: true,
		},
		{
			name:    "gemini with key",
			cfg:     Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}},
			wantErr: false,
		},
		{
			name:    "negative concurrency",
			cfg:     Config{Provider: "mock", MaxConcurrency: -1},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
