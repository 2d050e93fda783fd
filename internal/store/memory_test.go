package store

import (
	"bytes"
	"testing"
	"time"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	s := NewInMemoryStore()

	got, err := s.GetSession("sess-1", "tenant-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("missing session should return nil, got %v", got)
	}

	blob := []byte(`{"currentStep":"GREETING"}`)
	if err := s.PutSession("sess-1", "tenant-1", blob); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	got, err = s.GetSession("sess-1", "tenant-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("round trip mismatch: %s", got)
	}

	// The store must hand out copies, not aliases.
	got[0] = 'X'
	again, _ := s.GetSession("sess-1", "tenant-1")
	if !bytes.Equal(again, blob) {
		t.Error("GetSession returned an aliased slice")
	}
}

func TestInMemoryStoreSessionsAreTenantScoped(t *testing.T) {
	s := NewInMemoryStore()

	if err := s.PutSession("sess-1", "tenant-1", []byte("a")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	got, err := s.GetSession("sess-1", "tenant-2")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("same session id under another tenant should be absent, got %s", got)
	}
}

func TestInMemoryStoreDelete(t *testing.T) {
	s := NewInMemoryStore()

	if err := s.PutSession("sess-1", "tenant-1", []byte("a")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := s.DeleteSession("sess-1", "tenant-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	got, _ := s.GetSession("sess-1", "tenant-1")
	if got != nil {
		t.Errorf("deleted session still present: %s", got)
	}
}

func TestInMemoryStoreFailPuts(t *testing.T) {
	s := NewInMemoryStore()
	s.FailPuts = true

	if err := s.PutSession("sess-1", "tenant-1", []byte("a")); err == nil {
		t.Error("expected an error from PutSession")
	}
	got, _ := s.GetSession("sess-1", "tenant-1")
	if got != nil {
		t.Error("failed put must not store anything")
	}
}

func TestInMemoryStorePurgeExpiredSessions(t *testing.T) {
	s := NewInMemoryStore()

	if err := s.PutSession("old", "tenant-1", []byte("a")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	// Backdate the first entry past the cutoff.
	s.mu.Lock()
	entry := s.sessions[sessionKey("old", "tenant-1")]
	entry.updatedAt = time.Now().UTC().Add(-2 * time.Hour)
	s.sessions[sessionKey("old", "tenant-1")] = entry
	s.mu.Unlock()

	if err := s.PutSession("fresh", "tenant-1", []byte("b")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	purged, err := s.PurgeExpiredSessions(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredSessions failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged session, got %d", purged)
	}
	if got, _ := s.GetSession("old", "tenant-1"); got != nil {
		t.Error("expired session survived the purge")
	}
	if got, _ := s.GetSession("fresh", "tenant-1"); got == nil {
		t.Error("fresh session was purged")
	}
}
