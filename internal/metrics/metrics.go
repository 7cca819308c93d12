// Package metrics exposes Prometheus collectors for interview and LLM
// gateway activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhisek/skillprobe/internal/interview"
)

const namespace = "skillprobe"

// Metrics implements llm.Observer and session.Recorder.
type Metrics struct {
	sessionsStarted   *prometheus.CounterVec
	sessionsEnded     *prometheus.CounterVec
	turns             *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	generationFailure *prometheus.CounterVec
	llmCalls          *prometheus.CounterVec
	llmDuration       *prometheus.HistogramVec
}

// MustNewMetrics creates the collectors and registers them with reg, or
// with the default registerer when reg is nil. Registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "started_total",
				Help:      "Interview sessions started.",
			},
			[]string{"role"},
		),
		sessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "ended_total",
				Help:      "Interview sessions that reached a final status.",
			},
			[]string{"role", "status"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "turns_total",
				Help:      "Committed turns by analysis provenance.",
			},
			[]string{"role", "provenance"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "turn_duration_seconds",
				Help:      "Time to process a submitted answer, including model calls.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"role"},
		),
		generationFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "generation_failures_total",
				Help:      "Turns that failed because no next question could be generated.",
			},
			[]string{"role"},
		),
		llmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "calls_total",
				Help:      "LLM gateway calls by purpose and outcome.",
			},
			[]string{"purpose", "outcome"},
		),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "call_duration_seconds",
				Help:      "LLM gateway call latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"purpose"},
		),
	}
	reg.MustRegister(
		m.sessionsStarted,
		m.sessionsEnded,
		m.turns,
		m.turnDuration,
		m.generationFailure,
		m.llmCalls,
		m.llmDuration,
	)
	return m
}

// ObserveCompletion records one gateway call.
func (m *Metrics) ObserveCompletion(purpose string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.llmCalls.WithLabelValues(purpose, outcome).Inc()
	m.llmDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionStarted(role interview.Role) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) TurnProcessed(role interview.Role, provenance interview.Provenance, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(string(role), string(provenance)).Inc()
	m.turnDuration.WithLabelValues(string(role)).Observe(elapsed.Seconds())
}

func (m *Metrics) GenerationFailed(role interview.Role) {
	if m == nil {
		return
	}
	m.generationFailure.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) SessionEnded(role interview.Role, status interview.Status) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(string(role), string(status)).Inc()
}
