package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/safeguard/internal/domain/model"
)

// Sentinel errors returned by CredentialStore implementations. Adapters wrap
// them with operation context; callers classify with errors.Is.
var (
	// ErrStorageUnavailable indicates the environment cannot provide the
	// embedded store (unopenable file, lock held by another process, store
	// not initialized).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrValidation indicates a caller-supplied draft or patch failed the
	// required-field checks.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates no credential exists with the requested ID.
	ErrNotFound = errors.New("credential not found")

	// ErrReadFailure indicates a query or scan against the store failed.
	ErrReadFailure = errors.New("read failure")

	// ErrWriteFailure indicates a write transaction failed.
	ErrWriteFailure = errors.New("write failure")

	// ErrConstraintViolation indicates a generated ID collided with a live record.
	ErrConstraintViolation = errors.New("constraint violation")
)

// CredentialStore defines the driven port for credential persistence.
// Implementations rely on the underlying engine's transactions for atomicity
// and perform no application-level locking.
type CredentialStore interface {
	// Initialize opens the backing table, creating it if absent. It is idempotent.
	Initialize(ctx context.Context) error

	// GetAll returns every credential in store-stable (insertion) order.
	GetAll(ctx context.Context) ([]model.Credential, error)

	// Search returns the subset of GetAll whose service or username contains
	// query case-insensitively. Only the empty query is equivalent to GetAll.
	Search(ctx context.Context, query string) ([]model.Credential, error)

	// Add validates draft, assigns an ID and both timestamps, and persists it.
	Add(ctx context.Context, draft model.CredentialDraft) (model.Credential, error)

	// Update merges patch over the credential with the given ID and refreshes
	// its UpdatedAt. Returns ErrNotFound if the ID does not exist.
	Update(ctx context.Context, id string, patch model.CredentialPatch) (model.Credential, error)

	// Delete removes the credential with the given ID. Returns ErrNotFound if
	// the ID does not exist.
	Delete(ctx context.Context, id string) error

	// ClearAll removes every credential.
	ClearAll(ctx context.Context) error
}
