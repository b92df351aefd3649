// Package config loads trainload settings from YAML files, .env files and
// TRAINLOAD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/rshade/trainload/internal/docstore"
	"github.com/rshade/trainload/internal/engine/batch"
	"github.com/rshade/trainload/internal/logging"
	"github.com/rshade/trainload/internal/timetable"
	"github.com/rshade/trainload/internal/uploader"
)

// Defaults for values not set anywhere else.
const (
	DefaultCredentialsFile = "./firebase-service-account-key.json"
	DefaultStoreDir        = "./trainload-data"
	DefaultSplitPrefix     = "train_data_chunk"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = logging.FormatConsole
	configFileName         = "config.yaml"
)

// Config is the complete trainload configuration.
type Config struct {
	Upload   UploadConfig   `yaml:"upload"`
	Store    StoreConfig    `yaml:"store"`
	Input    InputConfig    `yaml:"input"`
	Split    SplitConfig    `yaml:"split"`
	Stations StationsConfig `yaml:"stations"`
	Logging  LoggingConfig  `yaml:"logging"`

	// path is the file the config was loaded from, if any.
	path string
}

// UploadConfig controls batching and the target collections.
type UploadConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	BatchDelay    time.Duration `yaml:"batch_delay"`
	CommitTimeout time.Duration `yaml:"commit_timeout"`
	Collection    string        `yaml:"collection"`
	LogCollection string        `yaml:"log_collection"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver          string `yaml:"driver"`
	CredentialsFile string `yaml:"credentials_file"`
	ProjectID       string `yaml:"project_id,omitempty"`
	DatabaseID      string `yaml:"database_id,omitempty"`
	Dir             string `yaml:"dir,omitempty"`
	DSN             string `yaml:"dsn,omitempty"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

// InputConfig describes the CSV input.
type InputConfig struct {
	Path      string `yaml:"path"`
	Encoding  string `yaml:"encoding"`
	Delimiter string `yaml:"delimiter,omitempty"`
}

// SplitConfig controls `trainload split`.
type SplitConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	Prefix    string `yaml:"prefix"`
	OutDir    string `yaml:"out_dir"`
}

// StationsConfig controls `trainload stations`.
type StationsConfig struct {
	Collection          string `yaml:"collection"`
	DistancesCollection string `yaml:"distances_collection"`
	// Distances enables the station pair upload.
	Distances bool `yaml:"distances"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Upload: UploadConfig{
			BatchSize:     batch.DefaultBatchSize,
			Collection:    uploader.DefaultCollection,
			LogCollection: uploader.DefaultLogCollection,
		},
		Store: StoreConfig{
			Driver:          docstore.DriverFirestore,
			CredentialsFile: DefaultCredentialsFile,
			Dir:             DefaultStoreDir,
			AutoMigrate:     true,
		},
		Input: InputConfig{
			Path:     uploader.DefaultSource,
			Encoding: timetable.DefaultEncoding,
		},
		Split: SplitConfig{
			ChunkSize: timetable.DefaultChunkSize,
			Prefix:    DefaultSplitPrefix,
			OutDir:    ".",
		},
		Stations: StationsConfig{
			Collection:          uploader.DefaultStationsCollection,
			DistancesCollection: uploader.DefaultDistancesCollection,
			Distances:           true,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads path on top of the defaults. A missing file yields the
// defaults without error.
func Load(path string) (*Config, error) {
	cfg := New()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	c.path = path
	return nil
}

// Path returns the file the config was loaded from or saved to.
func (c *Config) Path() string {
	return c.path
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if err := batch.ValidateBatchSize(c.Upload.BatchSize); err != nil {
		errs = append(errs, fmt.Errorf("upload.batch_size: %w", err))
	}
	if c.Upload.BatchDelay < 0 {
		errs = append(errs, errors.New("upload.batch_delay cannot be negative"))
	}
	if c.Upload.CommitTimeout < 0 {
		errs = append(errs, errors.New("upload.commit_timeout cannot be negative"))
	}
	if strings.TrimSpace(c.Upload.Collection) == "" {
		errs = append(errs, errors.New("upload.collection cannot be empty"))
	}
	if strings.TrimSpace(c.Upload.LogCollection) == "" {
		errs = append(errs, errors.New("upload.log_collection cannot be empty"))
	}

	errs = append(errs, c.Store.validate()...)

	if _, err := c.Input.Comma(); err != nil {
		errs = append(errs, err)
	}
	if _, err := timetable.Decode(strings.NewReader(""), c.Input.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("input.encoding: %w", err))
	}

	if c.Split.ChunkSize < 1 {
		errs = append(errs, errors.New("split.chunk_size must be at least 1"))
	}

	if strings.TrimSpace(c.Stations.Collection) == "" {
		errs = append(errs, errors.New("stations.collection cannot be empty"))
	}
	if c.Stations.Distances && strings.TrimSpace(c.Stations.DistancesCollection) == "" {
		errs = append(errs, errors.New("stations.distances_collection cannot be empty"))
	}

	switch c.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (s StoreConfig) validate() []error {
	if !docstore.IsDriver(s.Driver) {
		return []error{fmt.Errorf("store.driver: %w: %q (supported: %s)",
			docstore.ErrUnknownDriver, s.Driver, strings.Join(docstore.Drivers(), ", "))}
	}

	var errs []error
	switch strings.ToLower(s.Driver) {
	case docstore.DriverFirestore:
		if s.CredentialsFile == "" {
			errs = append(errs, errors.New("store.credentials_file is required for firestore"))
		}
	case docstore.DriverFile:
		if s.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file driver"))
		}
	case docstore.DriverPostgres, docstore.DriverMySQL:
		if s.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for %s", s.Driver))
		}
	}
	return errs
}

// StoreOptions converts the store section for docstore.Open.
func (s StoreConfig) StoreOptions() docstore.Options {
	return docstore.Options{
		Driver:          s.Driver,
		ProjectID:       s.ProjectID,
		DatabaseID:      s.DatabaseID,
		CredentialsFile: s.CredentialsFile,
		Dir:             s.Dir,
		DSN:             s.DSN,
		AutoMigrate:     s.AutoMigrate,
	}
}

// UploaderConfig converts the upload and input sections for the uploader.
func (c *Config) UploaderConfig() (uploader.Config, error) {
	comma, err := c.Input.Comma()
	if err != nil {
		return uploader.Config{}, err
	}
	return uploader.Config{
		Collection:          c.Upload.Collection,
		LogCollection:       c.Upload.LogCollection,
		StationsCollection:  c.Stations.Collection,
		DistancesCollection: c.Stations.DistancesCollection,
		BatchSize:           c.Upload.BatchSize,
		BatchDelay:          c.Upload.BatchDelay,
		CommitTimeout:       c.Upload.CommitTimeout,
		Encoding:            c.Input.Encoding,
		Comma:               comma,
	}, nil
}

// Comma returns the field delimiter. Empty means ','; "tab" and "\t" mean a
// tab character.
func (i InputConfig) Comma() (rune, error) {
	switch i.Delimiter {
	case "":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(i.Delimiter)
	if size != len(i.Delimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("input.delimiter %q must be a single character", i.Delimiter)
	}
	return r, nil
}
