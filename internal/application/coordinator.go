package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// State is the coordinator's position in the Idle -> Loading -> {Idle, Failed}
// state machine.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateFailed  State = "failed"
)

// Snapshot is the read-only view handed to presentation code. Records is a
// copy; mutating it has no effect on the coordinator.
type Snapshot struct {
	Records []model.Credential
	State   State
	Loading bool
	Error   string
	Stats   model.Stats
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Coordinator is the stateful façade between presentation code and the
// credential store. It owns a cached view of the records, a loading flag and
// a last-error slot. Every mutation is followed by a full read-back into the
// cache; the cache is replaced wholesale and only after a successful read.
//
// Overlapping calls are neither queued nor coalesced: each runs its own store
// calls and the last read to resolve wins the cache, which may then be older
// than the newest mutation. Callers that care should sequence or debounce
// their intents.
type Coordinator struct {
	store  driven.CredentialStore
	logger *slog.Logger

	mu          sync.Mutex
	records     []model.Credential
	inflight    int
	errMsg      string
	subscribers []subscriber
	nextSubID   int
}

// NewCoordinator creates a Coordinator over store. The cache starts empty; call
// Initialize to open the store and load it.
func NewCoordinator(store driven.CredentialStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		logger:  logger,
		records: []model.Credential{},
	}
}

// Initialize opens the store and loads the full record set. A store
// initialization failure is recorded in the error slot and returned so the
// composition root can fail fast; a failure of the follow-up read is only
// recorded.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.begin()

	if err := c.store.Initialize(ctx); err != nil {
		return c.fail("initialize", err, MsgConnectionFailed)
	}

	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
	return nil
}

// Refresh re-reads every record into the cache. Failures go to the error slot only.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.begin()
	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
}

// Search replaces the cache with the records matching query. An empty query is
// equivalent to Refresh. Failures go to the error slot only.
func (c *Coordinator) Search(ctx context.Context, query string) {
	c.begin()
	c.load(ctx, "search", MsgSearchFailed, func(ctx context.Context) ([]model.Credential, error) {
		return c.store.Search(ctx, query)
	})
}

// Add inserts a credential and refreshes the cache.
func (c *Coordinator) Add(ctx context.Context, draft model.CredentialDraft) (model.Credential, error) {
	c.begin()

	cred, err := c.store.Add(ctx, draft)
	if err != nil {
		return model.Credential{}, c.fail("add", err, MsgAddFailed)
	}
	c.logger.Info("credential added", "id", cred.ID, "service", cred.Service)

	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
	return cred, nil
}

// Update merges patch into the credential with the given ID and refreshes the cache.
func (c *Coordinator) Update(ctx context.Context, id string, patch model.CredentialPatch) (model.Credential, error) {
	c.begin()

	cred, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return model.Credential{}, c.fail("update", err, MsgUpdateFailed)
	}
	c.logger.Info("credential updated", "id", cred.ID, "service", cred.Service, "empty_patch", patch.IsEmpty())

	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
	return cred, nil
}

// Delete removes the credential with the given ID and refreshes the cache.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	c.begin()

	if err := c.store.Delete(ctx, id); err != nil {
		return c.fail("delete", err, MsgDeleteFailed)
	}
	c.logger.Info("credential deleted", "id", id)

	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
	return nil
}

// ClearAll removes every credential and refreshes the cache.
func (c *Coordinator) ClearAll(ctx context.Context) error {
	c.begin()

	if err := c.store.ClearAll(ctx); err != nil {
		return c.fail("clear", err, MsgClearFailed)
	}
	c.logger.Info("credentials cleared")

	c.load(ctx, "refresh", MsgFetchFailed, c.store.GetAll)
	return nil
}

// Snapshot returns the current view.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Stats derives aggregate statistics from the current cache.
func (c *Coordinator) Stats() model.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.ComputeStats(c.records)
}

// Subscribe registers fn to receive a Snapshot after every state transition.
// Listeners run synchronously on the goroutine that caused the transition,
// outside the coordinator's lock. The returned function removes the listener.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subscribers {
			if s.id == id {
				c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

// load runs fetch and, on success, replaces the cache with its result.
// It always ends the call started by begin.
func (c *Coordinator) load(
	ctx context.Context,
	op string,
	failMsg string,
	fetch func(context.Context) ([]model.Credential, error),
) {
	records, err := fetch(ctx)
	if err != nil {
		msg := messageFor(err, failMsg)
		c.logger.Error("credential read failed", "op", op, "error", err)
		c.finish(nil, false, msg)
		return
	}

	c.logger.Debug("credential cache replaced", "op", op, "count", len(records))
	c.finish(records, true, "")
}

// fail records err in the error slot, ends the call and returns the error a
// mutation hands back to its caller.
func (c *Coordinator) fail(op string, err error, fallback string) error {
	msg := messageFor(err, fallback)
	c.logger.Error("credential operation failed", "op", op, "error", err)
	c.finish(nil, false, msg)
	return &OperationError{Op: op, Message: msg, Err: err}
}

func (c *Coordinator) begin() {
	c.mu.Lock()
	c.inflight++
	snap, subs := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(subs, snap)
}

// finish ends one in-flight call. When replace is set the cache becomes
// records; a non-empty errMsg moves the coordinator to Failed, an empty one
// clears the slot.
func (c *Coordinator) finish(records []model.Credential, replace bool, errMsg string) {
	c.mu.Lock()
	c.inflight--
	if replace {
		if records == nil {
			records = []model.Credential{}
		}
		c.records = records
	}
	c.errMsg = errMsg
	snap, subs := c.snapshotLocked(), c.listenersLocked()
	c.mu.Unlock()

	notify(subs, snap)
}

func (c *Coordinator) snapshotLocked() Snapshot {
	records := make([]model.Credential, len(c.records))
	copy(records, c.records)

	state := StateIdle
	switch {
	case c.inflight > 0:
		state = StateLoading
	case c.errMsg != "":
		state = StateFailed
	}

	return Snapshot{
		Records: records,
		State:   state,
		Loading: c.inflight > 0,
		Error:   c.errMsg,
		Stats:   model.ComputeStats(c.records),
	}
}

func (c *Coordinator) listenersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), len(c.subscribers))
	for i, s := range c.subscribers {
		fns[i] = s.fn
	}
	return fns
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}
