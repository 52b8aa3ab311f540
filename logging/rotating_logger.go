package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// logFilePrefix names every file the rotating logger owns
const logFilePrefix = "nutricalc-"

// ownedFilePattern matches weekly files and their size-rotated siblings
var ownedFilePattern = regexp.MustCompile(`^` + logFilePrefix + `\d{4}-W\d{2}(_\d{2})?\.log$`)

// RotatingLogger writes to one file per ISO week. When maxFileSize is set, a
// full file continues in <week>_01.log, <week>_02.log and so on.
type RotatingLogger struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	seq  int
	size int64

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewRotatingLogger creates a rotating logger. A maxFileSize of 0 disables
// size rotation. Files are opened lazily on first write or by Open.
func NewRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxFileSize,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// weekKey returns the ISO week as YYYY-Www
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) path(week string, seq int) string {
	if seq == 0 {
		return filepath.Join(rl.dir, logFilePrefix+week+".log")
	}
	return filepath.Join(rl.dir, fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq))
}

// pickFile returns the first file from seq onwards that is missing or still
// has room, along with its current size
func (rl *RotatingLogger) pickFile(week string, seq int) (int, int64) {
	for ; ; seq++ {
		info, err := os.Stat(rl.path(week, seq))
		if err != nil {
			return seq, 0
		}
		if rl.maxSize <= 0 || info.Size() < rl.maxSize {
			return seq, info.Size()
		}
	}
}

// rotate switches to the file for week, starting the search at seq. Caller
// holds mu.
func (rl *RotatingLogger) rotate(week string, seq int) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		rl.file = nil
	}

	seq, size := rl.pickFile(week, seq)
	name := rl.path(week, seq)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", name, err)
	}

	rl.file = file
	rl.week = week
	rl.seq = seq
	rl.size = size
	return nil
}

// Open opens the file for the current week
func (rl *RotatingLogger) Open() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rotate(weekKey(rl.now()), 0)
}

// Write implements io.Writer. A single write larger than maxFileSize still
// lands in one file.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(rl.now())
	switch {
	case rl.file == nil || week != rl.week:
		if err := rl.rotate(week, 0); err != nil {
			return 0, err
		}
	case rl.maxSize > 0 && rl.size > 0 && rl.size+int64(len(p)) > rl.maxSize:
		if err := rl.rotate(week, rl.seq+1); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// currentPath is the file being written, empty before the first write
func (rl *RotatingLogger) currentPath() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return ""
	}
	return rl.file.Name()
}

// cleanup removes owned files last modified before the retention window.
// The file currently written is never removed.
func (rl *RotatingLogger) cleanup() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	active := rl.currentPath()
	cutoff := rl.now().Add(-rl.retention)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !ownedFilePattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		full := filepath.Join(rl.dir, entry.Name())
		if full == active {
			continue
		}
		if os.Remove(full) == nil {
			removed++
		}
	}
	return removed, nil
}

// StartCleanup runs cleanup every interval until Close
func (rl *RotatingLogger) StartCleanup(interval time.Duration) {
	rl.stopped = make(chan struct{})
	go func() {
		defer close(rl.stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				removed, err := rl.cleanup()
				if err != nil {
					slog.Warn("Failed to clean up old logs", "error", err)
				} else if removed > 0 {
					slog.Info("Cleaned up old log files", "removed", removed)
				}
			}
		}
	}()
}

// Close stops the cleanup loop and closes the current file. Calling it more
// than once is safe.
func (rl *RotatingLogger) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	if rl.stopped != nil {
		<-rl.stopped
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}

// setupLogger builds a logger writing text to the console and JSON to a
// rotating file in logDir. The returned RotatingLogger is nil when the file
// side could not be set up and only the console is used.
func setupLogger(logDir string, consoleLevel, fileLevel slog.Level, retentionWeeks int, maxFileSize int64) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: consoleLevel,
	})

	if logDir == "" {
		return slog.New(consoleHandler), nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		consoleLogger := slog.New(consoleHandler)
		consoleLogger.Error("Failed to create logs directory", "error", err)
		return consoleLogger, nil
	}

	rotatingLogger := NewRotatingLogger(logDir, retentionWeeks, maxFileSize)
	if err := rotatingLogger.Open(); err != nil {
		consoleLogger := slog.New(consoleHandler)
		consoleLogger.Error("Failed to initialize rotating logger", "error", err)
		return consoleLogger, nil
	}
	rotatingLogger.StartCleanup(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(rotatingLogger, &slog.HandlerOptions{
		Level: fileLevel,
	})

	return slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, fileHandler},
	}), rotatingLogger
}

// multiHandler fans a record out to every handler that accepts its level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		// each handler gets its own copy of the attrs
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
