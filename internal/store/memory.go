package store

import (
	"errors"
	"sync"
	"time"
)

var errPutFailed = errors.New("in-memory store: put failed")

type sessionEntry struct {
	blob      []byte
	updatedAt time.Time
}

// InMemoryStore is a metadata store backed by a process-local map. It is used
// in tests and as a degraded default when no database DSN is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry

	// FailPuts makes PutSession return an error; used to exercise the
	// best-effort persistence path in tests.
	FailPuts bool
}

// NewInMemoryStore creates an empty in-memory metadata store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]sessionEntry)}
}

func sessionKey(sessionID, tenantID string) string {
	return sessionID + "|" + tenantID
}

// GetSession returns the stored blob for the session, or nil if absent.
func (s *InMemoryStore) GetSession(sessionID, tenantID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionKey(sessionID, tenantID)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(entry.blob))
	copy(out, entry.blob)
	return out, nil
}

// PutSession stores or replaces the blob for the session.
func (s *InMemoryStore) PutSession(sessionID, tenantID string, blob []byte) error {
	if s.FailPuts {
		return errPutFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.sessions[sessionKey(sessionID, tenantID)] = sessionEntry{blob: stored, updatedAt: time.Now().UTC()}
	return nil
}

// DeleteSession removes the stored blob for the session.
func (s *InMemoryStore) DeleteSession(sessionID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(sessionID, tenantID))
	return nil
}

// PurgeExpiredSessions deletes sessions last written before cutoff.
func (s *InMemoryStore) PurgeExpiredSessions(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for key, entry := range s.sessions {
		if entry.updatedAt.Before(cutoff) {
			delete(s.sessions, key)
			purged++
		}
	}
	return purged, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
