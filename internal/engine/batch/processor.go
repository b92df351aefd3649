package batch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Batch size bounds.
const (
	// DefaultBatchSize is the number of items per batch when none is configured.
	DefaultBatchSize = 500

	// MinBatchSize is the minimum allowed batch size.
	MinBatchSize = 1

	// MaxBatchSize is the largest write set accepted by one atomic commit.
	MaxBatchSize = 500
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrEmptyItems       = errors.New("items slice cannot be empty")
)

// Callback processes a single batch. index is 0-based.
type Callback[T any] func(ctx context.Context, batch []T, index int) error

// ProgressCallback is invoked after every successful batch.
type ProgressCallback func(snap ProgressSnapshot)

// Processor walks a slice in fixed-size batches.
type Processor[T any] struct {
	batchSize  int
	delay      time.Duration
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if err := ValidateBatchSize(batchSize); err != nil {
		return nil, err
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// ValidateBatchSize reports whether size is within [MinBatchSize, MaxBatchSize].
func ValidateBatchSize(size int) error {
	if size < MinBatchSize || size > MaxBatchSize {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}
	return nil
}

// WithProgressCallback sets a callback invoked after each successful batch.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// WithDelay makes the processor pause between consecutive batches.
// The pause is skipped after the last batch and is interrupted by ctx.
func (p *Processor[T]) WithDelay(d time.Duration) *Processor[T] {
	if d < 0 {
		d = 0
	}
	p.delay = d
	return p
}

// Process hands items to callback in order, batchSize at a time. It stops at
// the first callback error, which is returned wrapped with the batch index.
// Context cancellation is checked before every batch.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback Callback[T]) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if callback == nil {
		return ErrNilCallback
	}

	bounds := p.CalculateBatches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)

	for index, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}

		if index > 0 && p.delay > 0 {
			if err := sleep(ctx, p.delay); err != nil {
				return err
			}
		}

		batch := items[b[0]:b[1]]
		if err := callback(ctx, batch, index); err != nil {
			return fmt.Errorf("batch %d failed: %w", index, err)
		}

		progress.AddProcessed(len(batch))
		if p.onProgress != nil {
			p.onProgress(progress.Snapshot())
		}
	}

	return nil
}

// TotalBatches returns ceil(totalItems / batchSize).
func (p *Processor[T]) TotalBatches(totalItems int) int {
	if totalItems <= 0 {
		return 0
	}
	return (totalItems + p.batchSize - 1) / p.batchSize
}

// CalculateBatches returns the [start, end) bounds of every batch.
func (p *Processor[T]) CalculateBatches(totalItems int) [][2]int {
	total := p.TotalBatches(totalItems)
	batches := make([][2]int, total)

	for i := 0; i < total; i++ {
		start := i * p.batchSize
		end := min(start+p.batchSize, totalItems)
		batches[i] = [2]int{start, end}
	}

	return batches
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
