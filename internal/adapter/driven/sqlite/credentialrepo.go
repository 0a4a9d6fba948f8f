package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db    *DB
	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	initialized bool
}

// CredentialRepoOption customizes a CredentialRepo.
type CredentialRepoOption func(*CredentialRepo)

// WithClock replaces the wall clock used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) CredentialRepoOption {
	return func(r *CredentialRepo) { r.now = now }
}

// WithIDGenerator replaces the UUIDv7 identifier generator.
func WithIDGenerator(newID func() string) CredentialRepoOption {
	return func(r *CredentialRepo) { r.newID = newID }
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
// Initialize must succeed before any other operation.
func NewCredentialRepo(db *DB, opts ...CredentialRepoOption) *CredentialRepo {
	r := &CredentialRepo{
		db:    db,
		now:   time.Now,
		newID: newUUIDv7,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Initialize verifies both connection pools and applies the schema migrations.
// Repeated calls after a success are no-ops.
func (r *CredentialRepo) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("initialize credential store: %w: %w", driven.ErrStorageUnavailable, err)
	}

	if err := RunMigrations(r.db.Writer); err != nil {
		return fmt.Errorf("initialize credential store: %w: %w", driven.ErrStorageUnavailable, err)
	}

	r.initialized = true
	return nil
}

func (r *CredentialRepo) ready() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("credential store not initialized: %w", driven.ErrStorageUnavailable)
	}
	return nil
}

// GetAll returns every credential in insertion order. An empty table yields an
// empty, non-nil slice.
func (r *CredentialRepo) GetAll(ctx context.Context) ([]model.Credential, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	const query = `SELECT id, service, username, secret, created_at, updated_at
		FROM credentials ORDER BY rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w: %w", driven.ErrReadFailure, err)
	}
	defer rows.Close()

	creds := []model.Credential{}
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w: %w", driven.ErrReadFailure, err)
		}
		creds = append(creds, *cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w: %w", driven.ErrReadFailure, err)
	}

	return creds, nil
}

// Search returns the credentials whose service or username contains query,
// ignoring case. Matching runs in Go rather than SQL because SQLite's lower()
// and LIKE fold ASCII only. The result preserves GetAll order.
func (r *CredentialRepo) Search(ctx context.Context, query string) ([]model.Credential, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("search credentials %q: %w", query, err)
	}

	if query == "" {
		return all, nil
	}

	matches := []model.Credential{}
	for _, cred := range all {
		if cred.Matches(query) {
			matches = append(matches, cred)
		}
	}
	return matches, nil
}

// Add validates the draft, assigns a fresh ID and equal CreatedAt/UpdatedAt,
// and inserts the credential.
func (r *CredentialRepo) Add(ctx context.Context, draft model.CredentialDraft) (model.Credential, error) {
	if err := r.ready(); err != nil {
		return model.Credential{}, err
	}

	if err := validateService(draft.Service); err != nil {
		return model.Credential{}, fmt.Errorf("add credential: %w", err)
	}

	now := r.now().UTC()
	cred := model.Credential{
		ID:        r.newID(),
		Service:   draft.Service,
		Username:  draft.Username,
		Secret:    draft.Secret,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `INSERT INTO credentials (id, service, username, secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.Service, cred.Username, cred.Secret,
		formatTime(cred.CreatedAt), formatTime(cred.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Credential{}, fmt.Errorf("add credential %s: %w: %w", cred.ID, driven.ErrConstraintViolation, err)
		}
		return model.Credential{}, fmt.Errorf("add credential %s: %w: %w", cred.ID, driven.ErrWriteFailure, err)
	}

	return cred, nil
}

// Update merges patch over the stored credential inside a single write
// transaction. UpdatedAt always moves forward, even when the clock has not.
func (r *CredentialRepo) Update(ctx context.Context, id string, patch model.CredentialPatch) (model.Credential, error) {
	if err := r.ready(); err != nil {
		return model.Credential{}, err
	}

	if patch.Service != nil {
		if err := validateService(*patch.Service); err != nil {
			return model.Credential{}, fmt.Errorf("update credential %s: %w", id, err)
		}
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, fmt.Errorf("update credential %s: begin tx: %w: %w", id, driven.ErrWriteFailure, err)
	}
	defer func() { _ = tx.Rollback() }()

	const selectQuery = `SELECT id, service, username, secret, created_at, updated_at
		FROM credentials WHERE id = ?`

	existing, err := scanCredential(tx.QueryRowContext(ctx, selectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credential{}, fmt.Errorf("update credential %s: %w", id, driven.ErrNotFound)
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("update credential %s: %w: %w", id, driven.ErrWriteFailure, err)
	}

	updated := patch.Apply(*existing)
	updated.UpdatedAt = nextUpdatedAt(existing.UpdatedAt, r.now().UTC())

	const updateQuery = `UPDATE credentials
		SET service = ?, username = ?, secret = ?, updated_at = ?
		WHERE id = ?`

	if _, err := tx.ExecContext(ctx, updateQuery,
		updated.Service, updated.Username, updated.Secret, formatTime(updated.UpdatedAt), id,
	); err != nil {
		return model.Credential{}, fmt.Errorf("update credential %s: %w: %w", id, driven.ErrWriteFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, fmt.Errorf("update credential %s: commit: %w: %w", id, driven.ErrWriteFailure, err)
	}

	return updated, nil
}

// Delete removes the credential with the given ID. Returns ErrNotFound when no
// row was affected, leaving the table unchanged.
func (r *CredentialRepo) Delete(ctx context.Context, id string) error {
	if err := r.ready(); err != nil {
		return err
	}

	const query = `DELETE FROM credentials WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete credential %s: %w: %w", id, driven.ErrWriteFailure, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w: %w", driven.ErrWriteFailure, err)
	}

	if rows == 0 {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrNotFound)
	}

	return nil
}

// ClearAll removes every credential unconditionally.
func (r *CredentialRepo) ClearAll(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}

	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w: %w", driven.ErrWriteFailure, err)
	}
	return nil
}

func validateService(service string) error {
	if strings.TrimSpace(service) == "" {
		return fmt.Errorf("service name is required: %w", driven.ErrValidation)
	}
	return nil
}

// nextUpdatedAt returns now, or prev plus one nanosecond when the clock has
// not advanced past prev.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "PRIMARY KEY")
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var createdAt, updatedAt string

	err := s.Scan(&cred.ID, &cred.Service, &cred.Username, &cred.Secret, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

// timeLayout is fixed-width RFC 3339 with nanoseconds, so stored values
// round-trip without losing precision and sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
