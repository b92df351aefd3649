package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type runIDKey struct{}

// NewID returns a new ULID string. IDs generated by one process sort by
// creation time.
func NewID() string {
	return ulid.Make().String()
}

// ContextWithRunID stores the run ID in ctx.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetOrGenerateRunID returns the run ID from ctx, generating one if absent.
func GetOrGenerateRunID(ctx context.Context) string {
	if id := RunIDFromContext(ctx); id != "" {
		return id
	}
	return NewID()
}
