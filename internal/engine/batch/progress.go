package batch

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// Progress tracks how many items and batches have been processed.
// It is safe for concurrent readers.
type Progress struct {
	totalItems       int
	processedItems   int
	totalBatches     int
	processedBatches int
	batchSize        int
	startTime        time.Time
	lastUpdateTime   time.Time

	mu sync.RWMutex
}

// ProgressSnapshot is an immutable copy of a Progress.
type ProgressSnapshot struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	BatchSize        int
	// LastBatchSize is the number of items in the most recent batch.
	LastBatchSize   int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
	ItemsPerSecond  float64
	// EstimatedRemaining extrapolates the average time per item so far over
	// the items still to go. Zero before the first batch and after the last.
	EstimatedRemaining time.Duration
}

// NewProgress creates a progress tracker starting now.
func NewProgress(totalItems, totalBatches, batchSize int) *Progress {
	now := time.Now()
	return &Progress{
		totalItems:     totalItems,
		totalBatches:   totalBatches,
		batchSize:      batchSize,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// AddProcessed records one finished batch of n items.
func (p *Progress) AddProcessed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processedItems += n
	p.processedBatches++
	p.lastUpdateTime = time.Now()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.startTime)
	var rate float64
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(p.processedItems) / s
	}

	last := 0
	if p.processedBatches > 0 {
		last = p.processedItems - (p.processedBatches-1)*p.batchSize
	}

	return ProgressSnapshot{
		TotalItems:       p.totalItems,
		ProcessedItems:   p.processedItems,
		TotalBatches:     p.totalBatches,
		ProcessedBatches: p.processedBatches,
		BatchSize:        p.batchSize,
		LastBatchSize:    last,
		StartTime:        p.startTime,
		LastUpdateTime:   p.lastUpdateTime,
		PercentComplete:  p.percentLocked(),
		ElapsedTime:      elapsed,
		ItemsPerSecond:   rate,

		EstimatedRemaining: remaining(elapsed, p.processedItems, p.totalItems),
	}
}

func remaining(elapsed time.Duration, done, total int) time.Duration {
	if done <= 0 || done >= total {
		return 0
	}
	perItem := elapsed / time.Duration(done)
	return perItem * time.Duration(total-done)
}

func (p *Progress) percentLocked() float64 {
	if p.totalItems == 0 {
		return 0
	}
	return float64(p.processedItems) / float64(p.totalItems) * percentMultiplier
}
