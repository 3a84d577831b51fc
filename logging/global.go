// Package logging configures the process-wide slog logger: text to the
// console and JSON to a weekly-rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/giygas/lipidcare-api/config"
)

type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with development defaults.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithRetentionAndSize(logDir, config.EnvDevelopment, "", 4, defaultMaxFileSize)
}

// InitLoggerWithRetentionAndSize initializes the global logger. Any logger
// set up by a previous call is closed.
func InitLoggerWithRetentionAndSize(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	initLogger(os.Stdout, logDir, env, logLevel, false, retentionWeeks, maxFileSize)
}

func initLogger(console io.Writer, logDir string, env config.Environment, logLevel string, verbose bool, retentionWeeks int, maxFileSize int64) {
	Close()

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(env, logLevel, verbose),
	})

	service := &LoggingService{Logger: slog.New(consoleHandler)}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			service.Logger.Error("Failed to create logs directory, logging to console only", "error", err)
		} else {
			rl := NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, maxFileSize)
			rl.startCleanup()

			fileHandler := slog.NewJSONHandler(rl, &slog.HandlerOptions{
				Level: GetFileLogLevel(),
			})
			service.rotatingLogger = rl
			service.Logger = slog.New(&multiHandler{
				handlers: []slog.Handler{consoleHandler, fileHandler},
			})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// ResetForTest installs a fresh global logger for the duration of a test
// and closes it on cleanup.
func ResetForTest(t testing.TB, logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()
	initLogger(os.Stdout, logDir, env, logLevel, testing.Verbose(), retentionWeeks, maxFileSize)
	t.Cleanup(Close)
}

// Close flushes and closes the global file logger, if any
func Close() {
	if DefaultLoggingService == nil || DefaultLoggingService.rotatingLogger == nil {
		return
	}
	_ = DefaultLoggingService.rotatingLogger.Close()
	DefaultLoggingService.rotatingLogger = nil
}

// parseLogLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level for env. Tests stay quiet
// unless run with -v and ignore LOG_LEVEL; elsewhere LOG_LEVEL wins.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level, which always keeps debug records
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// fallback is used before InitLogger runs
func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func logger(level slog.Level) *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback(level)
	}
	return DefaultLoggingService.Logger
}

// Default returns the global logger, or a stderr logger before InitLogger runs
func Default() *slog.Logger {
	return logger(slog.LevelInfo)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger(slog.LevelDebug).Debug(msg, args...)
}
