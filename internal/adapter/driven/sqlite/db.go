package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// DB provides dual reader/writer database connections with WAL mode enabled.
// The writer connection is limited to a single connection so writes are
// serialized within the process. The reader pool allows up to 4 concurrent readers.
// An exclusive advisory lock on "<path>.lock" keeps other processes from
// writing to the same store file.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
	lock   *flock.Flock
}

// NewDB creates a new dual-connection SQLite database with WAL mode, busy timeout,
// synchronous NORMAL, foreign keys enabled, and a 64MB cache. The parent
// directory is created if missing. Every failure wraps driven.ErrStorageUnavailable.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w: %w", driven.ErrStorageUnavailable, err)
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w: %w", dbPath, driven.ErrStorageUnavailable, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: held by another process: %w", dbPath, driven.ErrStorageUnavailable)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)

	db, err := open(ctx, dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	db.path = dbPath
	db.lock = lock

	return db, nil
}

const (
	writerMaxConns = 1
	readerMaxConns = 4
)

// open creates the writer and reader pools for dsn and pings both.
func open(ctx context.Context, dsn string) (*DB, error) {
	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w: %w", driven.ErrStorageUnavailable, err)
	}
	writer.SetMaxOpenConns(writerMaxConns)

	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping writer: %w: %w", driven.ErrStorageUnavailable, err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w: %w", driven.ErrStorageUnavailable, err)
	}
	reader.SetMaxOpenConns(readerMaxConns)

	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("ping reader: %w: %w", driven.ErrStorageUnavailable, err)
	}

	return &DB{Writer: writer, Reader: reader, path: dsn}, nil
}

// Path returns the database file path, or the DSN for in-memory databases.
func (db *DB) Path() string {
	return db.path
}

// Ping verifies both connection pools are usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if err := db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	return nil
}

// Close closes both reader and writer connections and releases the file lock.
// Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	if db.lock != nil {
		if err := db.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release lock: %w", err)
		}
	}

	return firstErr
}
