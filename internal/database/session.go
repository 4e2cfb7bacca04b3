package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Session is a unit of work pinned to one pooled connection.
// A session belongs to a single request and must not be shared.
type Session struct {
	conn    *sql.Conn
	dialect Dialect
	once    sync.Once
}

// Acquire checks a connection out of the pool. Callers must Release it, typically with defer.
func (db *DB) Acquire(ctx context.Context) (*Session, error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return &Session{conn: conn, dialect: db.dialect}, nil
}

// Release returns the connection to the pool. Calling it more than once is a no-op.
func (s *Session) Release() {
	s.once.Do(func() {
		if err := s.conn.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release database session")
		}
	})
}

// Transaction runs fn in a transaction on the session's connection.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Session) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return runTx(ctx, s.conn, fn)
}

func (s *Session) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, rebind(s.dialect, query), args...)
}

func (s *Session) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, rebind(s.dialect, query), args...)
}
