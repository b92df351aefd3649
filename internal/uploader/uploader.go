package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/trainload/internal/docstore"
	"github.com/rshade/trainload/internal/engine/batch"
	"github.com/rshade/trainload/internal/logging"
	"github.com/rshade/trainload/internal/timetable"
)

// Defaults for Config.
const (
	DefaultCollection          = "train_data"
	DefaultLogCollection       = "data_upload_logs"
	DefaultStationsCollection  = "stations"
	DefaultDistancesCollection = "stationDistances"
	DefaultSource              = "train_data.csv"
)

// Upload log entry values.
const (
	LogType          = "train_data"
	LogStatusSuccess = "success"
)

// Document timestamp fields added to every record.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Config controls a run.
type Config struct {
	Collection    string
	LogCollection string
	// StationsCollection and DistancesCollection receive the directories
	// built by UploadStations and UploadDistances.
	StationsCollection  string
	DistancesCollection string
	BatchSize           int
	// BatchDelay pauses between consecutive commits.
	BatchDelay time.Duration
	// CommitTimeout bounds each commit. Zero means no limit.
	CommitTimeout time.Duration
	Encoding      string
	Comma         rune
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Collection:          DefaultCollection,
		LogCollection:       DefaultLogCollection,
		StationsCollection:  DefaultStationsCollection,
		DistancesCollection: DefaultDistancesCollection,
		BatchSize:           batch.DefaultBatchSize,
		Encoding:            timetable.DefaultEncoding,
	}
}

// Opener opens an input location for reading.
type Opener func(ctx context.Context, location string) (io.ReadCloser, error)

// Summary describes a completed run.
type Summary struct {
	RunID    string
	Source   string
	Records  int
	Batches  int
	LogID    string
	Duration time.Duration
}

// Option customizes an Uploader.
type Option func(*Uploader)

// WithClock replaces time.Now as the source of document timestamps.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) { u.now = now }
}

// WithReporter sets the progress event receiver.
func WithReporter(r Reporter) Option {
	return func(u *Uploader) { u.reporter = r }
}

// WithOpener sets how input locations are opened.
func WithOpener(open Opener) Option {
	return func(u *Uploader) { u.open = open }
}

// Uploader performs one upload run against a store.
type Uploader struct {
	store    docstore.Store
	cfg      Config
	open     Opener
	now      func() time.Time
	reporter Reporter

	mu      sync.Mutex
	state   State
	batches int
	source  string
}

// New validates cfg and returns an idle Uploader. The caller owns store.
func New(store docstore.Store, cfg Config, opts ...Option) (*Uploader, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if err := batch.ValidateBatchSize(cfg.BatchSize); err != nil {
		return nil, err
	}
	if cfg.Collection == "" || cfg.LogCollection == "" {
		return nil, docstore.ErrEmptyCollection
	}
	if cfg.BatchDelay < 0 || cfg.CommitTimeout < 0 {
		return nil, errors.New("batch delay and commit timeout cannot be negative")
	}

	u := &Uploader{
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		reporter: NopReporter{},
		open:     openUnsupported,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func openUnsupported(_ context.Context, location string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("no opener configured for %s", location)
}

// State returns the current run state.
func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *Uploader) transition(next State) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.state.CanTransition(next) {
		return fmt.Errorf("invalid transition %s -> %s", u.state, next)
	}
	u.state = next
	return nil
}

// Run executes the whole upload: load, normalize, upload, log. It may be
// called once.
func (u *Uploader) Run(ctx context.Context, location string) (Summary, error) {
	start := time.Now()
	runID := logging.GetOrGenerateRunID(ctx)
	log := u.logger(ctx).With().Str("source", location).Logger()

	if err := u.transition(StateLoading); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrAlreadyRun, err)
	}
	u.source = location

	table, err := u.Load(ctx, location)
	if err != nil {
		return Summary{}, u.abort(log, StateLoading, err)
	}
	u.reporter.Loaded(location, table.Len())
	log.Info().Int("rows", table.Len()).Strs("columns", table.Columns).Msg("input loaded")

	_ = u.transition(StateNormalizing)
	records := u.Normalize(table)

	_ = u.transition(StateUploading)
	count, err := u.RunUpload(ctx, records)
	if err != nil {
		return Summary{}, u.abort(log, StateUploading, err)
	}

	_ = u.transition(StateLogging)
	logID, err := u.LogOutcome(ctx, count)
	if err != nil {
		return Summary{}, u.abort(log, StateLogging, err)
	}

	_ = u.transition(StateDone)
	summary := Summary{
		RunID:    runID,
		Source:   location,
		Records:  count,
		Batches:  u.batchCount(),
		LogID:    logID,
		Duration: time.Since(start),
	}
	log.Info().
		Int("records", summary.Records).
		Int("batches", summary.Batches).
		Str("log_id", logID).
		Dur("duration", summary.Duration).
		Msg("upload complete")
	u.reporter.Done(summary)
	return summary, nil
}

func (u *Uploader) abort(log zerolog.Logger, from State, err error) error {
	_ = u.transition(StateAborted)
	log.Error().Err(err).Str("state", from.String()).Msg("upload aborted")
	u.reporter.Aborted(from, err)
	return err
}

// Load reads location into a table. Any failure is a *LoadError.
func (u *Uploader) Load(ctx context.Context, location string) (*timetable.Table, error) {
	rc, err := u.open(ctx, location)
	if err != nil {
		return nil, &LoadError{Source: location, Err: err}
	}
	defer rc.Close()

	table, err := timetable.Load(ctx, rc, timetable.LoadOptions{
		Encoding: u.cfg.Encoding,
		Comma:    u.cfg.Comma,
	})
	if err != nil {
		return nil, &LoadError{Source: location, Err: err}
	}
	return table, nil
}

// Normalize converts the table rows into records.
func (u *Uploader) Normalize(table *timetable.Table) []timetable.Record {
	return timetable.Normalize(table)
}

// RunUpload commits records in order, BatchSize at a time, and returns how
// many were committed. It stops at the first failed commit with a
// *BatchCommitError; later batches are not attempted. Empty input commits
// nothing.
func (u *Uploader) RunUpload(ctx context.Context, records []timetable.Record) (int, error) {
	return commitAll(ctx, u, u.cfg.Collection, records, func(index int) {
		u.setBatchCount(index + 1)
	})
}

// UploadStations upserts the station directory into StationsCollection,
// keyed by station code, with the same batching as RunUpload.
func (u *Uploader) UploadStations(ctx context.Context, stations []timetable.Station) (int, error) {
	return commitAll(ctx, u, u.cfg.StationsCollection, stations, nil)
}

// UploadDistances upserts station pairs into DistancesCollection, keyed by
// "{from}_{to}", with the same batching as RunUpload.
func (u *Uploader) UploadDistances(ctx context.Context, distances []timetable.StationDistance) (int, error) {
	return commitAll(ctx, u, u.cfg.DistancesCollection, distances, nil)
}

// document is anything that can be written as a keyed document.
type document interface {
	Key() string
	Fields() map[string]any
}

// commitAll commits items to collection in order, BatchSize at a time.
// onCommit, when set, is called with the index of every committed batch.
func commitAll[T document](ctx context.Context, u *Uploader, collection string, items []T, onCommit func(index int)) (int, error) {
	log := u.logger(ctx).With().Str("collection", collection).Logger()
	if collection == "" {
		return 0, docstore.ErrEmptyCollection
	}
	if len(items) == 0 {
		log.Warn().Msg("no documents to upload")
		return 0, nil
	}

	proc, err := batch.NewProcessor[T](u.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	total := proc.TotalBatches(len(items))

	committed := 0
	var commitErr *BatchCommitError

	proc.WithDelay(u.cfg.BatchDelay).WithProgressCallback(func(snap batch.ProgressSnapshot) {
		u.reporter.BatchCommitted(snap)
	})

	err = proc.Process(ctx, items, func(ctx context.Context, batchItems []T, index int) error {
		writes := assemble(batchItems, u.now())

		if cErr := u.commit(ctx, collection, writes); cErr != nil {
			commitErr = &BatchCommitError{
				Index:  index,
				Offset: index * u.cfg.BatchSize,
				Size:   len(batchItems),
				Err:    cErr,
			}
			return commitErr
		}

		committed += len(batchItems)
		if onCommit != nil {
			onCommit(index)
		}
		log.Debug().
			Int("batch", index+1).
			Int("total_batches", total).
			Int("size", len(batchItems)).
			Int("committed", committed).
			Msg("batch committed")
		return nil
	})

	if commitErr != nil {
		return committed, commitErr
	}
	return committed, err
}

// assemble builds the upserts for one batch. Every document in the batch
// shares the timestamp now.
func assemble[T document](items []T, now time.Time) []docstore.Write {
	writes := make([]docstore.Write, len(items))
	for i, item := range items {
		data := item.Fields()
		data[FieldCreatedAt] = now
		data[FieldUpdatedAt] = now
		writes[i] = docstore.Write{Key: item.Key(), Data: data}
	}
	return writes
}

func (u *Uploader) commit(ctx context.Context, collection string, writes []docstore.Write) error {
	if u.cfg.CommitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.CommitTimeout)
		defer cancel()
	}
	return u.store.CommitBatch(ctx, collection, writes)
}

// LogOutcome writes the upload summary entry and returns its generated ID.
// Any failure is a *LogWriteError.
func (u *Uploader) LogOutcome(ctx context.Context, count int) (string, error) {
	entry := map[string]any{
		"type":        LogType,
		"recordCount": count,
		"uploadedAt":  u.now(),
		"status":      LogStatusSuccess,
		"source":      u.source,
		"batchCount":  u.batchCount(),
	}

	id, err := u.store.Add(ctx, u.cfg.LogCollection, entry)
	if err != nil {
		return "", &LogWriteError{Collection: u.cfg.LogCollection, Err: err}
	}

	log := u.logger(ctx)
	log.Debug().Str("log_id", id).Int("record_count", count).Msg("upload log written")
	return id, nil
}

func (u *Uploader) batchCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.batches
}

func (u *Uploader) setBatchCount(n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.batches = n
}

func (u *Uploader) logger(ctx context.Context) zerolog.Logger {
	return logging.ComponentLogger(*logging.FromContext(ctx), "uploader")
}
