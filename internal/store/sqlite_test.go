package store

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected an error when DSN is not set")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	got, err := s.GetSession("sess-1", "tenant-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("missing session should return nil, got %s", got)
	}

	blob := []byte(`{"currentStep":"CONFIRMING"}`)
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

	// Upsert replaces.
	updated := []byte(`{"currentStep":"COMPLETED"}`)
	if err := s.PutSession("sess-1", "tenant-1", updated); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	got, _ = s.GetSession("sess-1", "tenant-1")
	if !bytes.Equal(got, updated) {
		t.Errorf("upsert did not replace: %s", got)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.PutSession("sess-1", "tenant-1", []byte("a")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := s.DeleteSession("sess-1", "tenant-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	got, err := s.GetSession("sess-1", "tenant-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("deleted session still present: %s", got)
	}
}

func TestSQLiteStorePurgeExpiredSessions(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.PutSession("sess-1", "tenant-1", []byte("a")); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	// Everything was written just now, so a cutoff in the past purges nothing.
	purged, err := s.PurgeExpiredSessions(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredSessions failed: %v", err)
	}
	if purged != 0 {
		t.Errorf("expected 0 purged, got %d", purged)
	}

	// A cutoff in the future purges the lot.
	purged, err = s.PurgeExpiredSessions(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredSessions failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged, got %d", purged)
	}
	if got, _ := s.GetSession("sess-1", "tenant-1"); got != nil {
		t.Error("purged session still present")
	}
}
