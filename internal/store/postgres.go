// Package store provides storage backends for ConvoDesk.
//
// This file implements a PostgreSQL-backed metadata store for conversation state.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists conversation state blobs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// GetSession retrieves the state blob for a session, or nil if absent.
func (s *PostgresStore) GetSession(sessionID, tenantID string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT state FROM conversation_sessions WHERE session_id = $1 AND tenant_id = $2`,
		sessionID, tenantID).Scan(&blob)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.GetSession: not found", "sessionID", sessionID, "tenantID", tenantID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	return blob, nil
}

// PutSession stores or replaces the state blob for a session.
func (s *PostgresStore) PutSession(sessionID, tenantID string, blob []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO conversation_sessions (session_id, tenant_id, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (session_id, tenant_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`,
		sessionID, tenantID, blob)
	if err != nil {
		slog.Error("PostgresStore.PutSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return fmt.Errorf("failed to upsert session %s: %w", sessionID, err)
	}
	slog.Debug("PostgresStore.PutSession succeeded", "sessionID", sessionID, "tenantID", tenantID, "bytes", len(blob))
	return nil
}

// DeleteSession removes the stored blob for a session.
func (s *PostgresStore) DeleteSession(sessionID, tenantID string) error {
	_, err := s.db.Exec(
		`DELETE FROM conversation_sessions WHERE session_id = $1 AND tenant_id = $2`,
		sessionID, tenantID)
	if err != nil {
		slog.Error("PostgresStore.DeleteSession failed", "error", err, "sessionID", sessionID, "tenantID", tenantID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions last written before cutoff.
func (s *PostgresStore) PurgeExpiredSessions(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM conversation_sessions WHERE updated_at < $1`, cutoff.UTC())
	if err != nil {
		slog.Error("PostgresStore.PurgeExpiredSessions failed", "error", err)
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	purged, _ := res.RowsAffected()
	slog.Debug("PostgresStore.PurgeExpiredSessions succeeded", "purged", purged)
	return purged, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
