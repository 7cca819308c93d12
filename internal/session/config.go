package session

import (
	"fmt"
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

// Config holds engine configuration.
type Config struct {
	// TotalQuestions is the number of turns in an interview.
	TotalQuestions int

	// GenerationAttempts bounds how often the next question is requested
	// before the turn fails.
	GenerationAttempts int

	// GenerationBackoff is the pause between generation attempts. It
	// doubles after every failure.
	GenerationBackoff time.Duration

	// MinAnswerLength is the minimum answer length in characters after
	// trimming.
	MinAnswerLength int

	// IdleTimeout is how long an in-progress session may go untouched
	// before the reaper abandons it. Zero disables reaping.
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper looks for idle sessions.
	ReapInterval time.Duration

	// ProfileCacheSize is the number of completed profiles kept in memory.
	ProfileCacheSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		TotalQuestions:     interview.DefaultTotalQuestions,
		GenerationAttempts: 3,
		GenerationBackoff:  500 * time.Millisecond,
		MinAnswerLength:    20,
		IdleTimeout:        24 * time.Hour,
		ReapInterval:       5 * time.Minute,
		ProfileCacheSize:   256,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.TotalQuestions < 1 {
		return fmt.Errorf("total questions must be at least 1, got %d", c.TotalQuestions)
	}
	if c.GenerationAttempts < 1 {
		return fmt.Errorf("generation attempts must be at least 1, got %d", c.GenerationAttempts)
	}
	if c.MinAnswerLength < 0 {
		return fmt.Errorf("min answer length must not be negative, got %d", c.MinAnswerLength)
	}
	if c.GenerationBackoff < 0 || c.IdleTimeout < 0 || c.ReapInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.ProfileCacheSize < 1 {
		return fmt.Errorf("profile cache size must be at least 1, got %d", c.ProfileCacheSize)
	}
	return nil
}
