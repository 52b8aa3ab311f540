// Package logging wires log/slog for the service: a console handler, a
// weekly rotating JSON file and the HTTP request logging middleware.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/nutricalc-api/config"
)

type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance. An empty logDir logs to
// the console only.
func InitLogger(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	initLogger(logDir, env, logLevel, retentionWeeks, maxFileSize, false)
}

func initLogger(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64, verbose bool) {
	logger, rl := setupLogger(logDir, GetConsoleLogLevel(env, logLevel, verbose), GetFileLogLevel(), retentionWeeks, maxFileSize)
	DefaultLoggingService = &LoggingService{
		Logger:         logger,
		rotatingLogger: rl,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotatingLogger == nil {
		return nil
	}
	return DefaultLoggingService.rotatingLogger.Close()
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// GetConsoleLogLevel picks the console level. An explicit LOG_LEVEL wins
// except under test, where the console stays at error unless the tests run
// verbose.
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

// GetFileLogLevel is always debug: the file is the full record
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Package-level functions for direct access

func current() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return nil
	}
	return DefaultLoggingService.Logger
}

// Logger returns the configured logger, or a stderr logger before InitLogger runs
func Logger() *slog.Logger {
	if l := current(); l != nil {
		return l
	}
	return fallback(slog.LevelInfo)
}

// fallback is used before InitLogger runs
func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Info(msg string, args ...any) {
	if l := current(); l != nil {
		l.Info(msg, args...)
		return
	}
	fallback(slog.LevelInfo).Info(msg, args...)
}

func Error(msg string, args ...any) {
	if l := current(); l != nil {
		l.Error(msg, args...)
		return
	}
	fallback(slog.LevelError).Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if l := current(); l != nil {
		l.Warn(msg, args...)
		return
	}
	fallback(slog.LevelWarn).Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if l := current(); l != nil {
		l.Debug(msg, args...)
		return
	}
	fallback(slog.LevelDebug).Debug(msg, args...)
}
