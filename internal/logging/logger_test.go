package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"birdtriage/internal/config"
	"birdtriage/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("config loaded")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "birdtriage.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"config loaded"`) {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Outputs: []string{filepath.Join(t.TempDir(), "x.log")}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath, logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestOpenSessionLogMirrorsRecords(t *testing.T) {
	dir := t.TempDir()
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	session, err := logging.OpenSessionLog(logging.NewNop(), dir, "house sparrow", "sess-42", "console", stamp)
	if err != nil {
		t.Fatalf("OpenSessionLog: %v", err)
	}
	session.Logger.Info("clip approved", logging.String(logging.FieldClip, "a.wav"))
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if filepath.Base(session.Path) != "20260301T120000Z-house-sparrow.log" {
		t.Fatalf("unexpected session log name %q", session.Path)
	}
	data, err := os.ReadFile(session.Path)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "a.wav: clip approved") {
		t.Fatalf("unexpected session log contents %q", out)
	}
}

func TestPruneSessionLogsRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.log")
	freshPath := filepath.Join(dir, "fresh.log")
	for _, path := range []string{oldPath, freshPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := logging.PruneSessionLogs(logging.NewNop(), dir, 30, time.Now())
	if err != nil {
		t.Fatalf("PruneSessionLogs: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned log, got %d", removed)
	}
	if n, _ := logging.PruneSessionLogs(logging.NewNop(), dir, 0, time.Now()); n != 0 {
		t.Fatal("retention 0 must disable pruning")
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log to be pruned, stat err=%v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("expected fresh log to remain: %v", err)
	}
}
