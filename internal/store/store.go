// Package store provides durable metadata storage backends for ConvoDesk.
//
// Conversation state is stored as an opaque JSON blob keyed by
// (session_id, tenant_id). No transactional guarantees are assumed by the
// session layer; the in-process cache is authoritative for the life of the
// process and the durable store is best-effort recovery material.
package store

import "time"

// MetadataStore is the durable backend consumed by the session store.
type MetadataStore interface {
	// GetSession returns the stored blob for the session, or nil if absent.
	GetSession(sessionID, tenantID string) ([]byte, error)

	// PutSession stores or replaces the blob for the session.
	PutSession(sessionID, tenantID string, blob []byte) error

	// DeleteSession removes the stored blob for the session.
	DeleteSession(sessionID, tenantID string) error

	// PurgeExpiredSessions deletes sessions not written since cutoff and
	// returns how many were removed.
	PurgeExpiredSessions(cutoff time.Time) (int64, error)

	// Close releases the backend's resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite,
// connection URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
