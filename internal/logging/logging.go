package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saltyorg/todos/internal/config"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
	DefaultCompress   = true

	timeFormat = "2006-01-02 15:04:05"
)

// Apply sets the global log level from the -v count and wires the output writers.
// Console output is always on; when logFilePath is non-empty a rotating file sink is added.
func Apply(verbosity int, loader *config.Loader, logFilePath string) {
	zerolog.SetGlobalLevel(Level(verbosity))
	log.Logger = zerolog.New(Writer(os.Stdout, loader, logFilePath)).With().Timestamp().Logger()
}

// Level maps a verbosity count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.InfoLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Writer builds the console writer, teeing into a lumberjack file when logFilePath is set.
func Writer(console io.Writer, loader *config.Loader, logFilePath string) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	if logFilePath == "" {
		return consoleOutput
	}

	if err := ensureLogDir(logFilePath); err != nil {
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        rotatingFile(loader, logFilePath),
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

func rotatingFile(loader *config.Loader, path string) *lumberjack.Logger {
	maxSize := DefaultMaxSizeMB
	maxBackups := DefaultMaxBackups
	maxAgeDays := DefaultMaxAgeDays
	compress := DefaultCompress

	if loader != nil {
		if val := loader.Int("LOG_MAX_SIZE_MB", DefaultMaxSizeMB); val > 0 {
			maxSize = val
		}
		if val := loader.Int("LOG_MAX_BACKUPS", DefaultMaxBackups); val >= 0 {
			maxBackups = val
		}
		if val := loader.Int("LOG_MAX_AGE_DAYS", DefaultMaxAgeDays); val >= 0 {
			maxAgeDays = val
		}
		compress = loader.Bool("LOG_COMPRESS", DefaultCompress)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
