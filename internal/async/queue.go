package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueClosed = errors.New("queue is shutting down")
	ErrQueueFull   = errors.New("queue is full")
	ErrInFlight    = errors.New("job is already queued or running")
)

// Job asks for one extraction run. Retry selects the retry entry point,
// which accepts completed and failed jobs as well as pending ones.
type Job struct {
	JobID       uuid.UUID
	Retry       bool
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
