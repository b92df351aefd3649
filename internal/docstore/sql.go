package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// Dialect selects the SQL flavour used by a SQLStore.
type Dialect string

// Supported SQL dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DefaultPingTimeout bounds the connectivity check in OpenSQL.
const DefaultPingTimeout = 5 * time.Second

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationFiles embed.FS

// goose keeps its dialect and filesystem in package globals.
//
//nolint:gochecknoglobals // Serializes goose configuration.
var migrateMu sync.Mutex

// SQLStore keeps documents as JSON in a single documents table keyed by
// (collection, id).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database. The documents table must exist.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	switch dialect {
	case DialectPostgres, DialectMySQL:
	default:
		return nil, fmt.Errorf("%w: sql dialect %q", ErrUnknownDriver, dialect)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// OpenSQL connects to dsn, verifies connectivity and optionally applies the
// embedded migrations.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, migrate bool) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database DSN is empty")
	}

	var db *sql.DB
	switch dialect {
	case DialectPostgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres DSN: %w", err)
		}
		db = stdlib.OpenDB(*cfg)
	case DialectMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create mysql connector: %w", err)
		}
		db = sql.OpenDB(connector)
	default:
		return nil, fmt.Errorf("%w: sql dialect %q", ErrUnknownDriver, dialect)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err := RunMigrations(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{log: zerolog.Ctx(ctx)})
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+string(dialect)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CommitBatch upserts all writes inside one transaction.
func (s *SQLStore) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if err := validateBatch(collection, writes); err != nil {
		return err
	}

	payloads := make([][]byte, len(writes))
	for i, w := range writes {
		data, err := json.Marshal(w.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal document %q: %w", w.Key, err)
		}
		payloads[i] = data
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, w := range writes {
		if _, execErr := stmt.ExecContext(ctx, collection, w.Key, string(payloads[i])); execErr != nil {
			return fmt.Errorf("upsert document %q: %w", w.Key, execErr)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Add inserts data under a new time-ordered key.
func (s *SQLStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if collection == "" {
		return "", ErrEmptyCollection
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	id := newID()
	if _, err = s.db.ExecContext(ctx, s.insertQuery(), collection, id, string(payload)); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Get reads the document stored under key.
func (s *SQLStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, s.selectQuery(), collection, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}

	var doc map[string]any
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) upsertQuery() string {
	if s.dialect == DialectMySQL {
		return `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE data = VALUES(data), written_at = CURRENT_TIMESTAMP`
	}
	return `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, written_at = now()`
}

func (s *SQLStore) insertQuery() string {
	if s.dialect == DialectMySQL {
		return `INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`
	}
	return `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
}

func (s *SQLStore) selectQuery() string {
	if s.dialect == DialectMySQL {
		return `SELECT data FROM documents WHERE collection = ? AND id = ?`
	}
	return `SELECT data FROM documents WHERE collection = $1 AND id = $2`
}

// gooseLogger routes migration output through zerolog.
type gooseLogger struct {
	log *zerolog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info().Str("component", "migrate").Msgf(strings.TrimSuffix(format, "\n"), v...)
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Fatal().Str("component", "migrate").Msgf(strings.TrimSuffix(format, "\n"), v...)
}
