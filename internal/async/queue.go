package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull   = errors.New("scoring queue full")
	ErrQueueClosed = errors.New("scoring queue shutting down")
)

// ScoringTask asks for a freshly inserted ticket to be validated and baseline-scored.
type ScoringTask struct {
	TicketID       uuid.UUID `json:"ticket_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Dispatcher hands a task to a background executor without waiting for it to run.
type Dispatcher interface {
	DispatchScoring(ctx context.Context, task ScoringTask) error
}

// Handler executes a scoring task.
type Handler interface {
	HandleScoring(ctx context.Context, task ScoringTask) error
}

type HandlerFunc func(ctx context.Context, task ScoringTask) error

func (f HandlerFunc) HandleScoring(ctx context.Context, task ScoringTask) error { return f(ctx, task) }

// Recorder receives one call per finished task: "ok", "retry" or "failed".
type Recorder interface {
	RecordScoringTask(outcome string)
}
