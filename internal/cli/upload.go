package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/trainload/internal/config"
	"github.com/rshade/trainload/internal/docstore"
	"github.com/rshade/trainload/internal/source"
	"github.com/rshade/trainload/internal/uploader"
)

// UploadFlags holds the upload command flags. A flag overrides the
// configuration only when it was set explicitly.
type UploadFlags struct {
	BatchSize     int
	Driver        string
	Credentials   string
	Project       string
	Collection    string
	LogCollection string
	Encoding      string
	Delimiter     string
	BatchDelay    time.Duration
	CommitTimeout time.Duration
	Dir           string
	DSN           string
	DryRun        bool
}

// NewUploadCmd creates the upload command.
func NewUploadCmd() *cobra.Command {
	var flags UploadFlags

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a timetable CSV in atomic batches",
		Long: `Loads the CSV, converts sequence and distance_from_source to numbers,
strips trailing commas from station_name and writes every row as a document
keyed by {train_no}-{station_code}-{sequence}. Rows are committed in atomic
batches of at most 500; the first failed batch stops the upload. After all
batches succeed one summary entry is written to the log collection.

The file may be a local path or a gs://bucket/object URL.

Exit codes: 0 success, 1 configuration or startup error, 2 input could not be
loaded, 3 a batch commit failed, 4 the upload log could not be written,
130 interrupted.`,
		Example: `  # Upload train_data.csv from the current directory
  trainload upload

  # Upload to the local file store
  trainload upload stops.csv --driver file --dir ./out

  # Dry run: load and batch without writing
  trainload upload --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, &flags)
		},
	}

	bindStoreFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.Collection, "collection", "", "collection for timetable documents")
	cmd.Flags().StringVar(&flags.LogCollection, "log-collection", "", "collection for the upload log entry")

	return cmd
}

// bindStoreFlags registers the input, store and batching flags shared by the
// commands that write to a document store.
func bindStoreFlags(cmd *cobra.Command, flags *UploadFlags) {
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", 500, "records per atomic commit (1-500)")
	cmd.Flags().StringVar(&flags.Driver, "driver", "", "store driver: firestore, file, postgres, mysql, memory")
	cmd.Flags().StringVar(&flags.Credentials, "credentials", "", "service account key file")
	cmd.Flags().StringVar(&flags.Project, "project", "", "Google Cloud project ID (default: from the key file)")
	cmd.Flags().StringVar(&flags.Encoding, "encoding", "", "input encoding, e.g. utf-8, windows-1252, shift_jis")
	cmd.Flags().StringVar(&flags.Delimiter, "delimiter", "", "field delimiter (default ',')")
	cmd.Flags().DurationVar(&flags.BatchDelay, "batch-delay", 0, "pause between batch commits")
	cmd.Flags().DurationVar(&flags.CommitTimeout, "commit-timeout", 0, "time limit per batch commit (0 = none)")
	cmd.Flags().StringVar(&flags.Dir, "dir", "", "output directory for the file driver")
	cmd.Flags().StringVar(&flags.DSN, "dsn", "", "connection string for the postgres and mysql drivers")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "use an in-memory store and write nothing")
}

// applyUploadFlags copies explicitly set flags onto cfg. Flags a command does
// not define are never reported as changed.
func applyUploadFlags(cmd *cobra.Command, cfg *config.Config, flags *UploadFlags, args []string) {
	changed := cmd.Flags().Changed

	if len(args) > 0 {
		cfg.Input.Path = args[0]
	}
	if changed("batch-size") {
		cfg.Upload.BatchSize = flags.BatchSize
	}
	if changed("driver") {
		cfg.Store.Driver = flags.Driver
	}
	if changed("credentials") {
		cfg.Store.CredentialsFile = flags.Credentials
	}
	if changed("project") {
		cfg.Store.ProjectID = flags.Project
	}
	if changed("collection") {
		cfg.Upload.Collection = flags.Collection
	}
	if changed("log-collection") {
		cfg.Upload.LogCollection = flags.LogCollection
	}
	if changed("encoding") {
		cfg.Input.Encoding = flags.Encoding
	}
	if changed("delimiter") {
		cfg.Input.Delimiter = flags.Delimiter
	}
	if changed("batch-delay") {
		cfg.Upload.BatchDelay = flags.BatchDelay
	}
	if changed("commit-timeout") {
		cfg.Upload.CommitTimeout = flags.CommitTimeout
	}
	if changed("dir") {
		cfg.Store.Dir = flags.Dir
	}
	if changed("dsn") {
		cfg.Store.DSN = flags.DSN
	}
	if flags.DryRun {
		cfg.Store.Driver = docstore.DriverMemory
	}
}

func runUpload(cmd *cobra.Command, args []string, flags *UploadFlags) error {
	ctx := cmd.Context()
	out := NewStatusPrinter(cmd.OutOrStdout())

	cfg := *config.GetGlobalConfig()
	applyUploadFlags(cmd, &cfg, flags, args)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	location := cfg.Input.Path
	if err := checkSource(ctx, location); err != nil {
		return err
	}

	out.Starting(cfg.Store.Driver, cfg.Upload.Collection, cfg.Upload.BatchSize, flags.DryRun)
	logger.Info().
		Str("source", location).
		Str("driver", cfg.Store.Driver).
		Int("batch_size", cfg.Upload.BatchSize).
		Msg("starting upload")

	store, err := docstore.Open(ctx, cfg.Store.StoreOptions())
	if err != nil {
		return err
	}
	defer closeStore(store)

	up, err := newUploader(&cfg, store, out)
	if err != nil {
		return err
	}

	_, err = up.Run(ctx, location)
	return err
}

// newUploader builds an uploader for cfg that reads through the source
// package and reports to out.
func newUploader(cfg *config.Config, store docstore.Store, out *StatusPrinter) (*uploader.Uploader, error) {
	upCfg, err := cfg.UploaderConfig()
	if err != nil {
		return nil, err
	}

	srcOpts := source.Options{CredentialsFile: sourceCredentials(cfg.Store)}
	return uploader.New(store, upCfg,
		uploader.WithReporter(out),
		uploader.WithOpener(func(ctx context.Context, location string) (io.ReadCloser, error) {
			return source.Open(ctx, location, srcOpts)
		}),
	)
}

func closeStore(store docstore.Store) {
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing store")
	}
}

// checkSource reports a missing local input before any store work starts.
func checkSource(ctx context.Context, location string) error {
	loc, err := source.ParseLocation(location)
	if err != nil {
		return &uploader.LoadError{Source: location, Err: err}
	}
	if loc.IsRemote() {
		return nil
	}
	rc, err := source.Open(ctx, location, source.Options{})
	if err != nil {
		return &uploader.LoadError{Source: location, Err: err}
	}
	return rc.Close()
}

// sourceCredentials returns the key file used for gs:// input. Only the
// firestore driver carries a service account key; other drivers fall back to
// application default credentials.
func sourceCredentials(store config.StoreConfig) string {
	if store.Driver == docstore.DriverFirestore {
		return store.CredentialsFile
	}
	return ""
}
