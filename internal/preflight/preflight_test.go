package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"birdtriage/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	if result := CheckDirectoryAccess("test", " "); result.Passed {
		t.Fatal("expected failure for unset path")
	}
}

func TestCheckProgressRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "done.txt")
	if result := CheckProgressRecord(path); !result.Passed {
		t.Fatalf("missing record in writable dir should pass: %s", result.Detail)
	}
	if err := os.WriteFile(path, []byte("robin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckProgressRecord(path); !result.Passed {
		t.Fatalf("existing record should pass: %s", result.Detail)
	}
	if result := CheckProgressRecord(dir); result.Passed {
		t.Fatal("a directory is not a progress record")
	}
}

func TestCheckBinary(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if result := CheckBinary(context.Background(), "Player", present); !result.Passed {
		t.Fatalf("expected stub to resolve: %s", result.Detail)
	}
	if result := CheckBinary(context.Background(), "Player", "clearly-not-present-binary"); result.Passed {
		t.Fatal("expected missing binary to fail")
	}
	if result := CheckBinary(context.Background(), "Player", ""); result.Passed {
		t.Fatal("expected empty command to fail")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Playback.Command = []string{"clearly-not-present-binary"}

	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected only optional failures with playback disabled, got %+v", failed)
	}

	cfg.Playback.Enabled = true
	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "Audio player" {
		t.Fatalf("expected the player check to fail, got %+v", failed)
	}

	cfg.Paths.RootDir = filepath.Join(t.TempDir(), "missing")
	if len(Failed(RunAll(context.Background(), cfg))) < 2 {
		t.Fatal("expected root folder and progress record failures")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results")
	}
}
