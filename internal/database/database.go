package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 300 * time.Second
)

// ErrInsecureTransport is returned when a Postgres connection would not use TLS.
var ErrInsecureTransport = errors.New("database connection must use encrypted transport")

// Options configures the connection pool.
type Options struct {
	URL string
	// AllowInsecure permits plaintext Postgres connections (local development only).
	AllowInsecure   bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (o *Options) initDefaults() {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultMaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = DefaultMaxIdleConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = DefaultConnMaxLifetime
	}
}

// DB owns the process-wide connection pool.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// New opens the connection pool and verifies it with a ping.
// Connections older than ConnMaxLifetime are closed and replaced on their next checkout.
func New(ctx context.Context, opts Options) (*DB, error) {
	opts.initDefaults()

	target, err := ResolveURL(opts.URL, opts.AllowInsecure)
	if err != nil {
		return nil, err
	}

	conn, err := open(target, opts.AllowInsecure)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %s", Redact(err.Error()))
	}

	log.Debug().
		Str("dialect", string(target.Dialect)).
		Int("max_open_conns", opts.MaxOpenConns).
		Dur("conn_max_lifetime", opts.ConnMaxLifetime).
		Msg("Database connection established")

	return &DB{conn: conn, dialect: target.Dialect}, nil
}

func open(target Target, allowInsecure bool) (*sql.DB, error) {
	switch target.Dialect {
	case DialectPostgres:
		cfg, err := pgx.ParseConfig(target.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database url: %s", Redact(err.Error()))
		}
		if cfg.TLSConfig == nil && !allowInsecure {
			return nil, ErrInsecureTransport
		}
		return stdlib.OpenDB(*cfg), nil
	case DialectSQLite:
		conn, err := sql.Open("sqlite", target.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return conn, nil
	}
	return nil, fmt.Errorf("%w: dialect %q", ErrUnsupportedURL, target.Dialect)
}

// Dialect reports which SQL flavour the pool speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Stats returns pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.conn.Stats()
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Transaction runs fn in a transaction on any pooled connection.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return runTx(ctx, db.conn, fn)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

func runTx(ctx context.Context, b txBeginner, fn func(*sql.Tx) error) error {
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders into the dialect's native form.
func rebind(d Dialect, query string) string {
	if d != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
