package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// schemas holds the idempotent table definitions per dialect.
var schemas = map[Dialect]string{
	DialectPostgres: `
		CREATE TABLE IF NOT EXISTS todo (
			id SERIAL PRIMARY KEY,
			content VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS ix_todo_content ON todo (content);
	`,
	DialectSQLite: `
		CREATE TABLE IF NOT EXISTS todo (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS ix_todo_content ON todo (content);
	`,
}

// EnsureSchema creates the todo table and its index when they are missing.
// Existing tables are left as they are; there is no versioning.
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema, ok := schemas[db.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.dialect)
	}

	log.Info().Str("dialect", string(db.dialect)).Msg("Ensuring database schema")

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		for i, stmt := range splitSQLStatements(schema) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d failed: %w", i+1, err)
			}
		}
		return nil
	})
}

// splitSQLStatements splits a SQL string into individual statements.
// It skips comment lines and only returns non-empty statements.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}
