package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// MaxWritesPerCommit is the largest batch any driver accepts in one commit.
const MaxWritesPerCommit = 500

// Common store errors.
var (
	ErrEmptyCollection = errors.New("collection name cannot be empty")
	ErrEmptyKey        = errors.New("document key cannot be empty")
	ErrBatchTooLarge   = fmt.Errorf("batch exceeds %d writes", MaxWritesPerCommit)
	ErrUnknownDriver   = errors.New("unknown store driver")
	ErrCredentials     = errors.New("invalid store credentials")
	ErrNotFound        = errors.New("document not found")
)

// Write is a single upsert: Data replaces whatever is stored under Key.
type Write struct {
	Key  string
	Data map[string]any
}

// Store is a keyed document database.
type Store interface {
	// CommitBatch applies all writes to collection atomically.
	CommitBatch(ctx context.Context, collection string, writes []Write) error
	// Add stores data under a newly generated key and returns the key.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Close releases the connection to the store.
	Close() error
}

// validateBatch checks the preconditions shared by every driver.
func validateBatch(collection string, writes []Write) error {
	if collection == "" {
		return ErrEmptyCollection
	}
	if len(writes) > MaxWritesPerCommit {
		return fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(writes))
	}
	for i, w := range writes {
		if w.Key == "" {
			return fmt.Errorf("write %d: %w", i, ErrEmptyKey)
		}
	}
	return nil
}

// newID returns a time-ordered unique document key.
func newID() string {
	return ulid.Make().String()
}
