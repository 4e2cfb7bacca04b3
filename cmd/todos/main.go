package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/todos/internal/config"
	"github.com/saltyorg/todos/internal/database"
	"github.com/saltyorg/todos/internal/logging"
	"github.com/saltyorg/todos/internal/web"
)

var (
	version = "0.0.1"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port        int
	bind        string
	databaseURL string
	insecureDB  bool
	origins     []string
	logFile     string
	verbosity   int

	// Pool tuning (advanced)
	connMaxLifetime time.Duration
	maxOpenConns    int
	connectTimeout  time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "todos",
		Short:        "Todos - minimal todo API backed by Postgres",
		Long:         `Todos serves a small JSON API to create, list and delete todo items stored in a relational database.`,
		SilenceUsage: true,
		RunE:         run,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader := loaderFromEnv()
			applyEnv(cmd, loader)
			logging.Apply(verbosity, loader, logFile)
			return nil
		},
	}

	// Flags
	rootCmd.Flags().IntVarP(&port, "port", "p", 8000, "HTTP server port (or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringSliceVar(&origins, "origin", nil, "Additional CORS origin to allow, repeatable (or set CORS_ORIGINS env var)")

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database connection URL (required, or set DATABASE_URL env var)")
	rootCmd.PersistentFlags().BoolVar(&insecureDB, "insecure-db", false, "Allow unencrypted Postgres connections (local development only)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file, rotated (or set LOG_FILE env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	// Advanced pool flags
	rootCmd.PersistentFlags().DurationVar(&connMaxLifetime, "conn-max-lifetime", database.DefaultConnMaxLifetime, "Recycle pooled connections older than this")
	rootCmd.PersistentFlags().IntVar(&maxOpenConns, "max-open-conns", database.DefaultMaxOpenConns, "Maximum open database connections")
	rootCmd.PersistentFlags().DurationVar(&connectTimeout, "connect-timeout", 30*time.Second, "Timeout for the initial database connection")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "todos %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create the database schema if it is missing, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			log.Info().Msg("Database schema is ready")
			return nil
		},
	})

	return rootCmd
}

func loaderFromEnv() *config.Loader {
	return config.NewLoader(config.Env{})
}

// applyEnv fills flags the user did not set from the environment.
func applyEnv(cmd *cobra.Command, loader *config.Loader) {
	flags := cmd.Flags()

	if !flags.Changed("port") {
		port = loader.Int("PORT", port)
	}
	if !flags.Changed("bind") {
		bind = loader.String("BIND", bind)
	}
	if !flags.Changed("database-url") {
		databaseURL = loader.String("DATABASE_URL", databaseURL)
	}
	if !flags.Changed("insecure-db") {
		insecureDB = loader.Bool("DB_INSECURE", insecureDB)
	}
	if !flags.Changed("origin") {
		origins = append(origins, loader.List("CORS_ORIGINS")...)
	}
	if !flags.Changed("log-file") {
		logFile = loader.String("LOG_FILE", logFile)
	}
	if !flags.Changed("conn-max-lifetime") {
		connMaxLifetime = loader.Duration("DB_CONN_MAX_LIFETIME", connMaxLifetime)
	}
	if !flags.Changed("max-open-conns") {
		maxOpenConns = loader.Int("DB_MAX_OPEN_CONNS", maxOpenConns)
	}
}

func validate() error {
	if databaseURL == "" {
		return fmt.Errorf("--database-url flag or DATABASE_URL environment variable is required")
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}
	return nil
}

// openDatabase connects the pool and ensures the schema exists.
func openDatabase(ctx context.Context) (*database.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--database-url flag or DATABASE_URL environment variable is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := database.New(connectCtx, database.Options{
		URL:             databaseURL,
		AllowInsecure:   insecureDB,
		MaxOpenConns:    maxOpenConns,
		ConnMaxLifetime: connMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if insecureDB {
		log.Warn().Msg("Unencrypted database connections are allowed. Do not use --insecure-db in production.")
	}

	if err := db.EnsureSchema(connectCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return db, nil
}

func run(cmd *cobra.Command, args []string) error {
	if err := validate(); err != nil {
		return err
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("database", database.Redact(databaseURL)).
		Msg("Starting todos")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable, refusing to serve traffic")
	}
	defer db.Close()

	server := web.NewServer(db, web.Options{
		Port:         port,
		Bind:         bind,
		ExtraOrigins: origins,
		Timeouts:     config.LoadTimeouts(loaderFromEnv()),
	})

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Todos stopped")
	return nil
}
