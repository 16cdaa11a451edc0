// Package context provides run-scoped context values for the engine.
// Every recomputation pass gets a RunContext so log lines from all three
// analytics components can be correlated to the snapshot they ran over.
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunContext identifies one recomputation pass over a data snapshot.
type RunContext struct {
	// RunID identifies this pass
	RunID string

	// SnapshotAt is when the input snapshot was assembled by the caller
	SnapshotAt time.Time
}

type runContextKey struct{}

// WithRun adds RunContext to context.
func WithRun(ctx context.Context, run *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, run)
}

// GetRun returns RunContext from context or nil.
func GetRun(ctx context.Context) *RunContext {
	if v, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return v
	}
	return nil
}

// GetRunID returns the run ID from context or empty string.
func GetRunID(ctx context.Context) string {
	if r := GetRun(ctx); r != nil {
		return r.RunID
	}
	return ""
}

// NewRunContext creates a RunContext with a generated run ID.
func NewRunContext(snapshotAt time.Time) *RunContext {
	return &RunContext{
		RunID:      uuid.New().String(),
		SnapshotAt: snapshotAt,
	}
}
