package database

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Dialect identifies the SQL flavour behind a connection URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// sqlitePragmas mirror the WAL + busy timeout setup used for local stores.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"

var (
	// ErrUnsupportedURL is returned for connection URLs with an unknown scheme.
	ErrUnsupportedURL = errors.New("unsupported database url")

	credentialsPattern = regexp.MustCompile(`://[^@\s/]+@`)
	passwordPattern    = regexp.MustCompile(`(?i)(password=)([^\s&]+)`)
)

// Target is a connection URL resolved to a driver and data source name.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ResolveURL turns a configured database URL into a driver target.
//
// Postgres URLs may use the postgres, postgresql or postgresql+<driver> schemes; they are
// normalized to postgres:// and sslmode is forced to "require" unless the URL already asks for
// certificate verification. allowInsecure leaves sslmode untouched. sqlite:// URLs point at a
// local file.
func ResolveURL(raw string, allowInsecure bool) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("%w: missing scheme", ErrUnsupportedURL)
	}
	scheme = strings.ToLower(scheme)

	switch {
	case scheme == "sqlite" || scheme == "sqlite3":
		path, _, _ := strings.Cut(rest, "?")
		if path == "" {
			return Target{}, fmt.Errorf("%w: sqlite url has no path", ErrUnsupportedURL)
		}
		return Target{Dialect: DialectSQLite, DSN: path + "?" + sqlitePragmas}, nil

	case isPostgresScheme(scheme):
		u, err := url.Parse("postgres://" + rest)
		if err != nil {
			return Target{}, fmt.Errorf("failed to parse database url: %s", Redact(err.Error()))
		}
		if !allowInsecure {
			q := u.Query()
			switch q.Get("sslmode") {
			case "require", "verify-ca", "verify-full":
			default:
				q.Set("sslmode", "require")
			}
			u.RawQuery = q.Encode()
		}
		return Target{Dialect: DialectPostgres, DSN: u.String()}, nil
	}

	return Target{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
}

func isPostgresScheme(scheme string) bool {
	base, _, _ := strings.Cut(scheme, "+")
	return base == "postgres" || base == "postgresql"
}

// Redact strips credentials from connection strings embedded in s.
func Redact(s string) string {
	s = credentialsPattern.ReplaceAllString(s, "://***@")
	return passwordPattern.ReplaceAllString(s, "${1}***")
}
