package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/todos/internal/database"
)

type contextKey string

// SessionContextKey is the context key for the request's database session
const SessionContextKey contextKey = "session"

// Logger is a middleware that logs requests
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// SessionProvider hands out request-scoped database sessions.
type SessionProvider interface {
	Acquire(ctx context.Context) (*database.Session, error)
}

// Session acquires one database session per request and releases it when the handler
// returns, including when it panics.
func Session(db SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := db.Acquire(r.Context())
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to acquire database session")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"detail":"Database unavailable"}`))
				return
			}
			defer session.Release()

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the database session from context
func GetSession(ctx context.Context) *database.Session {
	session, ok := ctx.Value(SessionContextKey).(*database.Session)
	if !ok {
		return nil
	}
	return session
}
