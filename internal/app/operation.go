package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation tracks one CLI invocation. Its ID tags every log line written
// while the command runs.
type Operation struct {
	ID        string
	Name      string
	Actor     string
	Status    string // "success" or "error"
	StartedAt time.Time
}

// NewOperation creates an operation that is assumed successful until Fail is called.
func NewOperation(name, actor string, now time.Time) *Operation {
	return &Operation{
		ID:        now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8],
		Name:      name,
		Actor:     actor,
		Status:    "success",
		StartedAt: now,
	}
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt)
}
