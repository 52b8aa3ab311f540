package logging

import (
	"log/slog"
	"testing"

	"github.com/giygas/nutricalc-api/config"
)

// ResetForTest installs a fresh global logger for the duration of a test and
// restores the previous one on cleanup.
func ResetForTest(t testing.TB, logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()
	previous := DefaultLoggingService
	previousDefault := slog.Default()

	initLogger(logDir, env, logLevel, retentionWeeks, maxFileSize, testing.Verbose())
	installed := DefaultLoggingService

	t.Cleanup(func() {
		if installed.rotatingLogger != nil {
			_ = installed.rotatingLogger.Close()
		}
		DefaultLoggingService = previous
		slog.SetDefault(previousDefault)
	})
}

// ResetForBenchmark is ResetForTest for benchmarks
func ResetForBenchmark(b *testing.B, logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	ResetForTest(b, logDir, env, logLevel, retentionWeeks, maxFileSize)
}
