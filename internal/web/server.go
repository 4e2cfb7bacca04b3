package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/todos/internal/config"
	"github.com/saltyorg/todos/internal/web/handlers"
	"github.com/saltyorg/todos/internal/web/middleware"
)

// DefaultAllowedOrigins is the built-in CORS allow-list.
var DefaultAllowedOrigins = []string{
	"*",
	"https://todo-fastapi-lglaft0ln-muhammad-afnan-siddiquis-projects.vercel.app",
	"https://todo-fastapi-git-master-muhammad-afnan-siddiquis-projects.vercel.app",
	"https://todo-fastapi-ten.vercel.app",
	"http://localhost:3000",
	"http://localhost:8000",
	"https://wasp-hot-unlikely.ngrok-free.app",
}

// Options configures the HTTP server.
type Options struct {
	Port int
	Bind string
	// ExtraOrigins are appended to DefaultAllowedOrigins.
	ExtraOrigins []string
	Timeouts     config.TimeoutConfig
}

// Server represents the web server
type Server struct {
	db       middleware.SessionProvider
	opts     Options
	router   *chi.Mux
	handlers *handlers.Handlers
}

// NewServer creates a new web server backed by the given connection pool
func NewServer(db middleware.SessionProvider, opts Options) *Server {
	if opts.Timeouts == (config.TimeoutConfig{}) {
		opts.Timeouts = config.DefaultTimeoutConfig()
	}

	s := &Server{
		db:       db,
		opts:     opts,
		router:   chi.NewRouter(),
		handlers: handlers.New(),
	}

	s.setupRoutes()

	return s
}

// ServeHTTP dispatches to the router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AllowedOrigins returns the effective CORS allow-list
func (s *Server) AllowedOrigins() []string {
	origins := make([]string, 0, len(DefaultAllowedOrigins)+len(s.opts.ExtraOrigins))
	seen := make(map[string]bool)
	for _, o := range append(append([]string{}, DefaultAllowedOrigins...), s.opts.ExtraOrigins...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

// originAllowed matches against the allow-list. A "*" entry admits any origin, which is
// then echoed back so credentialed requests keep working.
func (s *Server) originAllowed() func(*http.Request, string) bool {
	allowed := make(map[string]bool)
	for _, o := range s.AllowedOrigins() {
		allowed[o] = true
	}
	return func(_ *http.Request, origin string) bool {
		return allowed["*"] || allowed[origin]
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  s.originAllowed(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Every route below runs with its own database session
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.opts.Timeouts.Request))
		r.Use(middleware.Session(s.db))

		r.Get("/", h.TodoList)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", h.TodoList)
			r.Post("/", h.TodoCreate)
			r.Delete("/{id}", h.TodoDelete)
		})
	})
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.opts.Bind, s.opts.Port)

	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.opts.Timeouts.Read,
		IdleTimeout: s.opts.Timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
