package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giygas/nutricalc-api/config"
)

// fixedClock pins the logger to a moment so week keys are predictable
func fixedClock(rl *RotatingLogger, t time.Time) {
	rl.now = func() time.Time { return t }
}

func listLogFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	var names []string
	for _, e := range entries {
		if ownedFilePattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC), "2025-W41"},
		// ISO weeks cross the calendar year
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), "2020-W53"},
		{time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "2026-W02"},
	}

	for _, tt := range tests {
		if got := weekKey(tt.date); got != tt.expected {
			t.Errorf("weekKey(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.expected)
		}
	}
}

func TestRotatingLoggerWritesWeeklyFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 0)
	fixedClock(rl, time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
	defer func() { _ = rl.Close() }()

	if _, err := rl.Write([]byte("calculation recorded\n")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "nutricalc-2025-W41.log"))
	if err != nil {
		t.Fatalf("Expected weekly log file: %v", err)
	}
	if string(content) != "calculation recorded\n" {
		t.Errorf("Unexpected log content %q", content)
	}
}

func TestRotatingLoggerSwitchesWeek(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 0)
	defer func() { _ = rl.Close() }()

	fixedClock(rl, time.Date(2025, 10, 5, 23, 59, 0, 0, time.UTC))
	_, _ = rl.Write([]byte("sunday\n"))

	fixedClock(rl, time.Date(2025, 10, 6, 0, 1, 0, 0, time.UTC))
	_, _ = rl.Write([]byte("monday\n"))

	files := listLogFiles(t, dir)
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %v", files)
	}
	if files[0] != "nutricalc-2025-W40.log" || files[1] != "nutricalc-2025-W41.log" {
		t.Errorf("Unexpected file names %v", files)
	}
}

func TestRotatingLoggerSizeRotation(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 100)
	fixedClock(rl, time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
	defer func() { _ = rl.Close() }()

	line := []byte(strings.Repeat("x", 39) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := rl.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	// 40 byte lines against a 100 byte limit: two per file
	expected := []string{"nutricalc-2025-W41.log", "nutricalc-2025-W41_01.log", "nutricalc-2025-W41_02.log"}
	files := listLogFiles(t, dir)
	if strings.Join(files, ",") != strings.Join(expected, ",") {
		t.Fatalf("Expected files %v, got %v", expected, files)
	}

	for i, name := range expected {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Stat %s: %v", name, err)
		}
		want := int64(80)
		if i == 2 {
			want = 40
		}
		if info.Size() != want {
			t.Errorf("Expected %s to hold %d bytes, got %d", name, want, info.Size())
		}
	}
}

func TestRotatingLoggerOversizedWriteStaysWhole(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 10)
	defer func() { _ = rl.Close() }()

	big := strings.Repeat("y", 50)
	if _, err := rl.Write([]byte(big)); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	content, err := os.ReadFile(rl.currentPath())
	if err != nil {
		t.Fatalf("Failed to read current file: %v", err)
	}
	if string(content) != big {
		t.Errorf("Expected the oversized record in a single file")
	}
}

func TestRotatingLoggerResumesExistingFiles(t *testing.T) {
	tests := []struct {
		name         string
		existing     map[string]int
		expectedFile string
		expectedSize int64
	}{
		{"no files", nil, "nutricalc-2025-W41.log", 0},
		{"base with room", map[string]int{"nutricalc-2025-W41.log": 512}, "nutricalc-2025-W41.log", 512},
		{"base full", map[string]int{"nutricalc-2025-W41.log": 2048}, "nutricalc-2025-W41_01.log", 0},
		{"numbered with room", map[string]int{"nutricalc-2025-W41.log": 1024, "nutricalc-2025-W41_01.log": 100}, "nutricalc-2025-W41_01.log", 100},
		{"all full", map[string]int{"nutricalc-2025-W41.log": 1024, "nutricalc-2025-W41_01.log": 1024}, "nutricalc-2025-W41_02.log", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, size := range tt.existing {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Repeat("x", size)), 0666); err != nil {
					t.Fatalf("Failed to seed %s: %v", name, err)
				}
			}

			rl := NewRotatingLogger(dir, 1, 1024)
			fixedClock(rl, time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
			defer func() { _ = rl.Close() }()

			if err := rl.Open(); err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if got := filepath.Base(rl.currentPath()); got != tt.expectedFile {
				t.Errorf("Expected %s, got %s", tt.expectedFile, got)
			}
			if rl.week != "2025-W41" || rl.size != tt.expectedSize {
				t.Errorf("Expected week 2025-W41 size %d, got %s %d", tt.expectedSize, rl.week, rl.size)
			}
		})
	}
}

func TestRotatingLoggerCleanup(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC)

	rl := NewRotatingLogger(dir, 1, 0)
	fixedClock(rl, now)
	defer func() { _ = rl.Close() }()

	old := now.AddDate(0, 0, -21)
	seed := map[string]time.Time{
		"nutricalc-2025-W38.log":    old,
		"nutricalc-2025-W38_01.log": old,
		"nutricalc-2025-W40.log":    now.AddDate(0, 0, -3),
		"unrelated.log":             old,
	}
	for name, mtime := range seed {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("old"), 0666); err != nil {
			t.Fatalf("Failed to seed %s: %v", name, err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Failed to age %s: %v", name, err)
		}
	}

	removed, err := rl.cleanup()
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 files removed, got %d", removed)
	}

	for name, shouldExist := range map[string]bool{
		"nutricalc-2025-W38.log":    false,
		"nutricalc-2025-W38_01.log": false,
		"nutricalc-2025-W40.log":    true,
		"unrelated.log":             true,
	} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		if exists := statErr == nil; exists != shouldExist {
			t.Errorf("Expected %s exists=%v, got %v", name, shouldExist, exists)
		}
	}
}

func TestRotatingLoggerCleanupKeepsActiveFile(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 0)
	defer func() { _ = rl.Close() }()

	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	active := rl.currentPath()
	past := time.Now().AddDate(0, -2, 0)
	_ = os.Chtimes(active, past, past)

	if _, err := rl.cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(active); err != nil {
		t.Errorf("Active file should survive cleanup: %v", err)
	}
}

func TestRotatingLoggerInvalidDirectory(t *testing.T) {
	rl := NewRotatingLogger("/invalid/directory/that/does/not/exist", 1, 0)

	if err := rl.Open(); err == nil {
		t.Error("Expected error opening a file in a missing directory")
	}
	if _, err := rl.Write([]byte("lost")); err == nil {
		t.Error("Expected error writing to a missing directory")
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Close should succeed without a file, got %v", err)
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	rl := NewRotatingLogger(dir, 1, 1000)
	defer func() { _ = rl.Close() }()

	const goroutines = 20
	const writes = 50
	line := fmt.Sprintf("%s\n", strings.Repeat("z", 99))

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range writes {
				if _, err := rl.Write([]byte(line)); err != nil {
					t.Errorf("Concurrent write failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, name := range listLogFiles(t, dir) {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Stat %s: %v", name, err)
		}
		if info.Size() > 1000 {
			t.Errorf("File %s exceeds the size limit: %d bytes", name, info.Size())
		}
		total += info.Size()
	}
	if want := int64(goroutines * writes * len(line)); total != want {
		t.Errorf("Expected %d bytes across files, got %d", want, total)
	}
}

func TestRotatingLoggerCloseStopsCleanup(t *testing.T) {
	rl := NewRotatingLogger(t.TempDir(), 1, 0)
	rl.StartCleanup(time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = rl.Close()
		_ = rl.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the cleanup loop")
	}
}

func TestGlobalLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	ResetForTest(t, dir, config.EnvTest, "", 2, 1<<20)

	Info("Calculation recorded", "formula", "stature-tibia", "value", 128.6)
	Debug("Calculation rejected", "field", "tibia_length")

	f, err := os.Open(DefaultLoggingService.rotatingLogger.currentPath())
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("File records should be JSON, got %q", scanner.Text())
		}
		records = append(records, rec)
	}

	// the file keeps debug records even though the test console is at error
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["formula"] != "stature-tibia" || records[0]["value"] != 128.6 {
		t.Errorf("Unexpected first record %v", records[0])
	}
	if records[1]["level"] != "DEBUG" {
		t.Errorf("Expected DEBUG record, got %v", records[1]["level"])
	}
}

func TestMultiHandler(t *testing.T) {
	var quiet, loud strings.Builder
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	if !multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug enabled through the loud handler")
	}

	logger := slog.New(multi).With("request_id", "abc").WithGroup("calc")
	logger.Info("recorded", "formula", "bmr")

	if quiet.Len() != 0 {
		t.Errorf("Error level handler should stay silent, got %q", quiet.String())
	}
	if !strings.Contains(loud.String(), `"request_id":"abc"`) || !strings.Contains(loud.String(), `"calc":{"formula":"bmr"}`) {
		t.Errorf("Expected attrs and group in output, got %q", loud.String())
	}

	single := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	if single.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info disabled when every handler is at error")
	}
}

func TestResponseWriterWrapper(t *testing.T) {
	recorder := httptest.NewRecorder()
	wrapper := &responseWriterWrapper{ResponseWriter: recorder, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)
	n, err := wrapper.Write([]byte(`{"error":"Not Found"}`))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// a second WriteHeader is ignored
	wrapper.WriteHeader(http.StatusInternalServerError)
	if recorder.Code != http.StatusNotFound || wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status to stay 404, got %d/%d", recorder.Code, wrapper.statusCode)
	}
	if wrapper.bytesWritten != n {
		t.Errorf("Expected bytesWritten %d, got %d", n, wrapper.bytesWritten)
	}
}
