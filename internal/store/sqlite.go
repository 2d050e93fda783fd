// Package store provides storage backends for ConvoDesk.
//
// This file implements an SQLite-backed metadata store for conversation state.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists conversation state blobs in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetSession retrieves the state blob for a session, or nil if absent.
func (s *SQLiteStore) GetSession(sessionID, tenantID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT state FROM conversation_sessions WHERE session_id = ? AND tenant_id = ?`,
		sessionID, tenantID).Scan(&blob)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.GetSession: not found", "sessionID", sessionID, "tenantID", tenantID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore.GetSession succeeded", "sessionID", sessionID, "tenantID", tenantID, "bytes", len(blob))
	return blob, nil
}

// PutSession stores or replaces the state blob for a session.
func (s *SQLiteStore) PutSession(sessionID, tenantID string, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO conversation_sessions (session_id, tenant_id, state, updated_at) VALUES (?, ?, ?, ?)`,
		sessionID, tenantID, blob, time.Now().UTC())
	if err != nil {
		slog.Error("SQLiteStore.PutSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return fmt.Errorf("failed to upsert session %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore.PutSession succeeded", "sessionID", sessionID, "tenantID", tenantID, "bytes", len(blob))
	return nil
}

// DeleteSession removes the stored blob for a session.
func (s *SQLiteStore) DeleteSession(sessionID, tenantID string) error {
	_, err := s.db.Exec(
		`DELETE FROM conversation_sessions WHERE session_id = ? AND tenant_id = ?`,
		sessionID, tenantID)
	if err != nil {
		slog.Error("SQLiteStore.DeleteSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore.DeleteSession succeeded", "sessionID", sessionID, "tenantID", tenantID)
	return nil
}

// PurgeExpiredSessions deletes sessions last written before cutoff.
func (s *SQLiteStore) PurgeExpiredSessions(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM conversation_sessions WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		slog.Error("SQLiteStore.PurgeExpiredSessions failed", "error", err)
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	purged, _ := res.RowsAffected()
	slog.Debug("SQLiteStore.PurgeExpiredSessions succeeded", "purged", purged)
	return purged, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
