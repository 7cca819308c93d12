package session

import (
	"time"

	"github.com/abhisek/skillprobe/internal/interview"
)

// Recorder receives engine lifecycle events, typically for metrics.
type Recorder interface {
	SessionStarted(role interview.Role)
	TurnProcessed(role interview.Role, provenance interview.Provenance, elapsed time.Duration)
	GenerationFailed(role interview.Role)
	SessionEnded(role interview.Role, status interview.Status)
}

type noopRecorder struct{}

func (noopRecorder) SessionStarted(interview.Role) {}
func (noopRecorder) TurnProcessed(interview.Role, interview.Provenance, time.Duration) {}
func (noopRecorder) GenerationFailed(interview.Role) {}
func (noopRecorder) SessionEnded(interview.Role, interview.Status) {}
