package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// fakeStore is an in-memory driven.CredentialStore. Each *Err field, when set,
// is returned by the matching operation instead of doing any work. getAllHook,
// when set, runs at the start of every GetAll call with the 1-based call number;
// if it returns ok, its records are returned instead of the live table.
type fakeStore struct {
	mu      sync.Mutex
	records []model.Credential
	nextID  int
	getAlls int

	initErr   error
	getAllErr error
	searchErr error
	addErr    error
	updateErr error
	deleteErr error
	clearErr  error

	getAllHook func(call int) (records []model.Credential, ok bool)
}

var _ driven.CredentialStore = (*fakeStore)(nil)

func newFakeStore(records ...model.Credential) *fakeStore {
	return &fakeStore{records: append([]model.Credential{}, records...)}
}

func (f *fakeStore) Initialize(_ context.Context) error {
	return f.initErr
}

func (f *fakeStore) GetAll(_ context.Context) ([]model.Credential, error) {
	f.mu.Lock()
	f.getAlls++
	call := f.getAlls
	hook := f.getAllHook
	f.mu.Unlock()

	if hook != nil {
		if records, ok := hook(call); ok {
			return records, nil
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getAllErr != nil {
		return nil, f.getAllErr
	}
	return append([]model.Credential{}, f.records...), nil
}

func (f *fakeStore) Search(_ context.Context, query string) ([]model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []model.Credential{}
	for _, c := range f.records {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Add(_ context.Context, draft model.CredentialDraft) (model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return model.Credential{}, f.addErr
	}
	if draft.Service == "" {
		return model.Credential{}, fmt.Errorf("add credential: %w", driven.ErrValidation)
	}
	f.nextID++
	now := time.Date(2026, 1, 1, 0, 0, f.nextID, 0, time.UTC)
	c := model.Credential{
		ID:        fmt.Sprintf("id-%d", f.nextID),
		Service:   draft.Service,
		Username:  draft.Username,
		Secret:    draft.Secret,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.records = append(f.records, c)
	return c, nil
}

func (f *fakeStore) Update(_ context.Context, id string, patch model.CredentialPatch) (model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return model.Credential{}, f.updateErr
	}
	for i, c := range f.records {
		if c.ID == id {
			updated := patch.Apply(c)
			updated.UpdatedAt = c.UpdatedAt.Add(time.Second)
			f.records[i] = updated
			return updated, nil
		}
	}
	return model.Credential{}, fmt.Errorf("update credential %s: %w", id, driven.ErrNotFound)
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.records {
		if c.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete credential %s: %w", id, driven.ErrNotFound)
}

func (f *fakeStore) ClearAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.records = nil
	return nil
}

func (f *fakeStore) setGetAllErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getAllErr = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
