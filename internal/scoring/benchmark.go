package scoring

import (
	"context"
	"fmt"

	"github.com/abhisek/skillprobe/internal/interview"
)

const (
	// MinBenchmarkSamples is the fewest peer sessions needed for a real
	// percentile.
	MinBenchmarkSamples = 10

	// NeutralPercentile is reported when there are too few peers.
	NeutralPercentile = 50
)

// Percentile ranks score against peer scores. Ties do not count as below.
// With fewer than MinBenchmarkSamples peers the neutral 50 is returned.
func Percentile(score int, peers []int) int {
	if len(peers) < MinBenchmarkSamples {
		return NeutralPercentile
	}
	below := 0
	for _, p := range peers {
		if p < score {
			below++
		}
	}
	return below * 100 / len(peers)
}

// Benchmark is a session's standing among completed sessions of its role.
type Benchmark struct {
	Role       interview.Role `json:"role"`
	Percentile int            `json:"percentile"`
	SampleSize int            `json:"sample_size"`
	// Sufficient is false when the percentile is the neutral default.
	Sufficient bool `json:"sufficient"`
}

// ScoreSource lists total scores of completed sessions.
type ScoreSource interface {
	CompletedScoresByRole(ctx context.Context, role interview.Role, excludeID string) ([]int, error)
}

// Benchmarker ranks sessions against stored peers.
type Benchmarker struct {
	src ScoreSource
}

// NewBenchmarker creates a Benchmarker reading from src.
func NewBenchmarker(src ScoreSource) *Benchmarker {
	return &Benchmarker{src: src}
}

// Benchmark ranks score among completed sessions of role, excluding the
// session being ranked.
func (b *Benchmarker) Benchmark(ctx context.Context, role interview.Role, excludeID string, score int) (*Benchmark, error) {
	peers, err := b.src.CompletedScoresByRole(ctx, role, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load %s benchmark: %w", role, err)
	}
	return &Benchmark{
		Role:       role,
		Percentile: Percentile(score, peers),
		SampleSize: len(peers),
		Sufficient: len(peers) >= MinBenchmarkSamples,
	}, nil
}
