package docstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Store driver names.
const (
	DriverFirestore = "firestore"
	DriverFile      = "file"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverMemory    = "memory"
)

// Drivers lists every supported driver name.
func Drivers() []string {
	return []string{DriverFirestore, DriverFile, DriverPostgres, DriverMySQL, DriverMemory}
}

// IsDriver reports whether name is a supported driver.
func IsDriver(name string) bool {
	return slices.Contains(Drivers(), strings.ToLower(strings.TrimSpace(name)))
}

// Options selects and configures a store driver.
type Options struct {
	Driver string

	// firestore
	ProjectID       string
	DatabaseID      string
	CredentialsFile string

	// file
	Dir string

	// postgres, mysql
	DSN         string
	AutoMigrate bool
}

// Open connects to the store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverFirestore:
		store, err = wrapOpen(OpenFirestore(ctx, FirestoreOptions{
			ProjectID:       opts.ProjectID,
			DatabaseID:      opts.DatabaseID,
			CredentialsFile: opts.CredentialsFile,
		}))
	case DriverFile:
		store, err = wrapOpen(NewFileStore(opts.Dir))
	case DriverPostgres:
		store, err = wrapOpen(OpenSQL(ctx, DialectPostgres, opts.DSN, opts.AutoMigrate))
	case DriverMySQL:
		store, err = wrapOpen(OpenSQL(ctx, DialectMySQL, opts.DSN, opts.AutoMigrate))
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnknownDriver, opts.Driver, strings.Join(Drivers(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Driver, err)
	}
	return store, nil
}

// wrapOpen converts a concrete driver result into a Store, keeping a failed
// open as a nil interface.
func wrapOpen[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
