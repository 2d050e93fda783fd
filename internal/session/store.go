// Package session owns the canonical ConversationState per session: an
// in-process cache with logical expiry, backed by a durable metadata store
// for recovery across process restarts.
//
// The cache is authoritative for the life of the process. Durable writes are
// best-effort: a persistence failure is logged and never surfaced to the
// caller, and it does not roll back the in-memory update.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/store"
)

// DefaultSessionTTL is the inactivity window after which a session is
// logically expired. Expiry is checked on read, not actively swept.
const DefaultSessionTTL = 30 * time.Minute

// Store is the session state service. It is an injected instance, not a
// process-wide global, so request handlers and tests can carry their own.
type Store struct {
	mu      sync.Mutex
	cache   map[string]*models.ConversationState
	locks   map[string]*sessionLock
	durable store.MetadataStore
	ttl     time.Duration
	now     func() time.Time
}

// sessionLock is a per-session mutex with a holder count so the entry can be
// removed from the map once the last holder releases it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a session store.
type Option func(*Store)

// WithTTL overrides the session expiry window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source; used in expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store backed by the given durable metadata store.
func NewStore(durable store.MetadataStore, opts ...Option) *Store {
	s := &Store{
		cache:   make(map[string]*models.ConversationState),
		locks:   make(map[string]*sessionLock),
		durable: durable,
		ttl:     DefaultSessionTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(sessionID, tenantID string) string {
	return sessionID + "|" + tenantID
}

// LockSession serializes message processing per session and returns the
// unlock function. Concurrent messages for the same session (duplicate
// webhook delivery) would otherwise race the read-modify-write cycle.
// Lock entries are reference counted and dropped from the map when the last
// holder unlocks, so idle sessions leave nothing behind.
func (s *Store) LockSession(sessionID, tenantID string) func() {
	key := cacheKey(sessionID, tenantID)
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sessionLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Get returns the cached state if present and not expired; otherwise it
// attempts to reload from durable storage, falling back to a freshly created
// state if the reload fails or the reloaded state is expired. It never
// returns an error on reload failure: it logs and degrades to a fresh session.
func (s *Store) Get(ctx context.Context, sessionID, tenantID string) *models.ConversationState {
	now := s.now()
	key := cacheKey(sessionID, tenantID)

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()

	if ok {
		if !cached.ExpiredAt(now, s.ttl) {
			slog.Debug("session.Store.Get: cache hit", "sessionID", sessionID, "tenantID", tenantID, "step", cached.CurrentStep)
			return cached
		}
		slog.Info("session.Store.Get: cached session expired, discarding", "sessionID", sessionID, "tenantID", tenantID)
		s.mu.Lock()
		delete(s.cache, key)
		s.mu.Unlock()
	}

	if state := s.reload(sessionID, tenantID, now); state != nil {
		s.mu.Lock()
		s.cache[key] = state
		s.mu.Unlock()
		return state
	}

	fresh := models.NewConversationState(sessionID, tenantID, now)
	s.mu.Lock()
	s.cache[key] = fresh
	s.mu.Unlock()
	slog.Debug("session.Store.Get: created fresh session", "sessionID", sessionID, "tenantID", tenantID)
	return fresh
}

// reload pulls the serialized state from durable storage. Any failure is
// logged and reported as a miss.
func (s *Store) reload(sessionID, tenantID string, now time.Time) *models.ConversationState {
	blob, err := s.durable.GetSession(sessionID, tenantID)
	if err != nil {
		slog.Error("session.Store.reload: durable read failed, degrading to fresh session", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return nil
	}
	if blob == nil {
		return nil
	}
	state, err := Deserialize(blob)
	if err != nil {
		slog.Error("session.Store.reload: corrupt state blob, degrading to fresh session", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return nil
	}
	if state.ExpiredAt(now, s.ttl) {
		slog.Info("session.Store.reload: durable session expired, discarding", "sessionID", sessionID, "tenantID", tenantID)
		return nil
	}
	slog.Debug("session.Store.reload: recovered session from durable storage", "sessionID", sessionID, "tenantID", tenantID, "step", state.CurrentStep)
	return state
}

// Update merges a partial update into the current state using per-entity
// merge rules, refreshes lastActivity, and persists the merged result.
// Persistence failures are logged but do not roll back the in-memory update.
func (s *Store) Update(ctx context.Context, sessionID, tenantID string, update StateUpdate) *models.ConversationState {
	state := s.Get(ctx, sessionID, tenantID)
	now := s.now()
	applyUpdate(state, update, now)
	state.LastActivity = now

	s.persist(state)
	return state
}

// Reset clears the cache and persists a brand-new empty state. Testing hook.
func (s *Store) Reset(ctx context.Context, sessionID, tenantID string) *models.ConversationState {
	key := cacheKey(sessionID, tenantID)
	fresh := models.NewConversationState(sessionID, tenantID, s.now())

	s.mu.Lock()
	s.cache[key] = fresh
	s.mu.Unlock()

	s.persist(fresh)
	slog.Info("session.Store.Reset: session reset", "sessionID", sessionID, "tenantID", tenantID)
	return fresh
}

func (s *Store) persist(state *models.ConversationState) {
	blob, err := Serialize(state)
	if err != nil {
		slog.Error("session.Store.persist: serialization failed", "error", err, "sessionID", state.SessionID)
		return
	}
	if err := s.durable.PutSession(state.SessionID, state.TenantID, blob); err != nil {
		slog.Error("session.Store.persist: durable write failed, continuing on in-memory state", "error", err, "sessionID", state.SessionID, "tenantID", state.TenantID)
	}
}

// Serialize encodes a ConversationState as JSON. Set fields serialize to
// ordered arrays and timestamps to RFC 3339, so re-serializing a freshly
// deserialized state produces identical bytes.
func Serialize(state *models.ConversationState) ([]byte, error) {
	return json.Marshal(state)
}

// Deserialize restores a ConversationState from its JSON form.
func Deserialize(blob []byte) (*models.ConversationState, error) {
	var state models.ConversationState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
