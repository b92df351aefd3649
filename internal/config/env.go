package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvHome          = "TRAINLOAD_HOME"
	EnvConfig        = "TRAINLOAD_CONFIG"
	EnvBatchSize     = "TRAINLOAD_BATCH_SIZE"
	EnvBatchDelay    = "TRAINLOAD_BATCH_DELAY"
	EnvCommitTimeout = "TRAINLOAD_COMMIT_TIMEOUT"
	EnvCollection    = "TRAINLOAD_COLLECTION"
	EnvLogCollection = "TRAINLOAD_LOG_COLLECTION"
	EnvStations      = "TRAINLOAD_STATIONS_COLLECTION"
	EnvDistances     = "TRAINLOAD_DISTANCES_COLLECTION"
	EnvDriver        = "TRAINLOAD_STORE_DRIVER"
	EnvCredentials   = "TRAINLOAD_CREDENTIALS"
	EnvProjectID     = "TRAINLOAD_PROJECT_ID"
	EnvDatabaseID    = "TRAINLOAD_DATABASE_ID"
	EnvStoreDir      = "TRAINLOAD_STORE_DIR"
	EnvDSN           = "TRAINLOAD_DSN"
	EnvInput         = "TRAINLOAD_INPUT"
	EnvEncoding      = "TRAINLOAD_ENCODING"
	EnvLogLevel      = "TRAINLOAD_LOG_LEVEL"
	EnvLogFormat     = "TRAINLOAD_LOG_FORMAT"
	EnvLogFile       = "TRAINLOAD_LOG_FILE"

	// EnvDatabaseURL is honoured when TRAINLOAD_DSN is unset.
	EnvDatabaseURL = "DATABASE_URL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped. With no arguments it loads ./.env.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from TRAINLOAD_* environment variables.
// Malformed numeric or duration values are reported and leave the field as it
// was.
func (c *Config) ApplyEnv() error {
	var errs []error

	if v, ok := lookup(EnvBatchSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvBatchSize, err))
		} else {
			c.Upload.BatchSize = n
		}
	}
	if v, ok := lookup(EnvBatchDelay); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvBatchDelay, err))
		} else {
			c.Upload.BatchDelay = d
		}
	}
	if v, ok := lookup(EnvCommitTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvCommitTimeout, err))
		} else {
			c.Upload.CommitTimeout = d
		}
	}

	setString(&c.Upload.Collection, EnvCollection)
	setString(&c.Upload.LogCollection, EnvLogCollection)
	setString(&c.Stations.Collection, EnvStations)
	setString(&c.Stations.DistancesCollection, EnvDistances)
	setString(&c.Store.Driver, EnvDriver)
	setString(&c.Store.CredentialsFile, EnvCredentials)
	setString(&c.Store.ProjectID, EnvProjectID)
	setString(&c.Store.DatabaseID, EnvDatabaseID)
	setString(&c.Store.Dir, EnvStoreDir)
	setString(&c.Store.DSN, EnvDatabaseURL)
	setString(&c.Store.DSN, EnvDSN)
	setString(&c.Input.Path, EnvInput)
	setString(&c.Input.Encoding, EnvEncoding)
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setString(&c.Logging.File, EnvLogFile)

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
