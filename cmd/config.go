package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/skillprobe/internal/analysis"
	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/metrics"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/store"
)

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SKILLPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("skillprobe")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/skillprobe")
	v.AddConfigPath("/etc/skillprobe")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// addEngineFlags registers the flags read by buildEngine.
func addEngineFlags(cmd *cobra.Command) {
	def := session.DefaultConfig()
	llmDef := llm.DefaultConfig()
	f := cmd.Flags()
	f.String("llm-provider", "", "LLM provider (anthropic, openai, gemini, openrouter, mock)")
	f.String("llm-model", "", "Model for the selected provider")
	f.Duration("llm-timeout", llmDef.Timeout, "Upper bound for one LLM call including retries")
	f.Int("llm-max-concurrency", llmDef.MaxConcurrency, "Maximum in-flight LLM calls (0 = unlimited)")
	f.Int("questions", def.TotalQuestions, "Questions per interview")
	f.Int("generation-attempts", def.GenerationAttempts, "Attempts to generate the next question before a turn fails")
	f.Duration("generation-backoff", def.GenerationBackoff, "Pause between question generation attempts")
	f.Int("min-answer-length", def.MinAnswerLength, "Minimum answer length in characters")
	f.Duration("idle-timeout", def.IdleTimeout, "Abandon in-progress interviews idle this long (0 = never)")
	f.Duration("reap-interval", def.ReapInterval, "How often idle interviews are looked for")
	f.Int("profile-cache-size", def.ProfileCacheSize, "Completed profiles kept in memory")
	f.Duration("analysis-timeout", analysis.DefaultConfig().Timeout, "Timeout for one answer analysis")
	f.Duration("generation-timeout", questiongen.DefaultConfig().Timeout, "Timeout for one question generation")
}

// llmConfigFrom builds the LLM configuration. SKILLPROBE_* variables are read
// first; when they name no usable provider the standard vendor key variables
// are probed. Flags and the config file override both.
func llmConfigFrom(v *viper.Viper) (llm.Config, error) {
	cfg := llm.ConfigFromEnv()
	if cfg.Validate() != nil && os.Getenv("SKILLPROBE_LLM_PROVIDER") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg = discovered
		}
	}

	if p := v.GetString("llm-provider"); p != "" {
		cfg.Provider = p
	}
	if m := v.GetString("llm-model"); m != "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.Anthropic.Model = m
		case "openai":
			cfg.OpenAI.Model = m
		case "gemini":
			cfg.Gemini.Model = m
		case "openrouter":
			cfg.OpenRouter.Model = m
		}
	}
	if v.IsSet("llm-timeout") {
		cfg.Timeout = v.GetDuration("llm-timeout")
	}
	if v.IsSet("llm-max-concurrency") {
		cfg.MaxConcurrency = v.GetInt("llm-max-concurrency")
	}

	if err := cfg.Validate(); err != nil {
		return llm.Config{}, err
	}
	return cfg, nil
}

func sessionConfigFrom(v *viper.Viper) (session.Config, error) {
	cfg := session.Config{
		TotalQuestions:     v.GetInt("questions"),
		GenerationAttempts: v.GetInt("generation-attempts"),
		GenerationBackoff:  v.GetDuration("generation-backoff"),
		MinAnswerLength:    v.GetInt("min-answer-length"),
		IdleTimeout:        v.GetDuration("idle-timeout"),
		ReapInterval:       v.GetDuration("reap-interval"),
		ProfileCacheSize:   v.GetInt("profile-cache-size"),
	}
	return cfg, cfg.Validate()
}

// buildEngine wires the provider chain, gateway, analyzer, generator and
// engine on top of an open store. reg receives the engine and LLM metrics.
func buildEngine(ctx context.Context, v *viper.Viper, st *store.Store, reg prometheus.Registerer) (*session.Engine, error) {
	llmCfg, err := llmConfigFrom(v)
	if err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}
	engineCfg, err := sessionConfigFrom(v)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	logger := slog.Default()
	events := st.EventRepo()
	provider, err := llm.NewProvider(ctx, llmCfg, events, logger)
	if err != nil {
		return nil, err
	}
	m := metrics.MustNewMetrics(reg)
	gateway := llm.NewGatewayFromConfig(provider, llmCfg, llm.WithObserver(m))

	anCfg := analysis.DefaultConfig()
	anCfg.Timeout = v.GetDuration("analysis-timeout")
	genCfg := questiongen.DefaultConfig()
	genCfg.Timeout = v.GetDuration("generation-timeout")

	logger.Info("LLM gateway ready",
		"provider", llmCfg.Provider,
		"model", gateway.ModelID(),
		"max_concurrency", llmCfg.MaxConcurrency,
	)

	return session.New(
		st.Sessions(),
		analysis.New(gateway, events, anCfg, logger),
		questiongen.New(gateway, genCfg, logger),
		engineCfg,
		session.WithLogger(logger),
		session.WithRecorder(m),
	)
}
