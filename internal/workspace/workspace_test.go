package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"birdtriage/internal/faults"
	"birdtriage/internal/testsupport"
	"birdtriage/internal/workspace"
)

func TestCategoriesSkipsOutputsAndHiddenEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithCategory("american_robin"),
		testsupport.WithCategory("wren"),
		testsupport.WithCategory(".trash"),
		testsupport.WithCategory("noise"),
		testsupport.WithCategory("false_positive"),
		testsupport.WithCategory("filtered_species_files"),
	)
	root := cfg.Paths.RootDir
	testsupport.WriteClip(t, filepath.Join(root, "american_robin", "a.wav"), 3.0)
	testsupport.WriteClip(t, filepath.Join(root, "american_robin", "b.wav"), 3.0)
	testsupport.WriteFile(t, filepath.Join(root, "american_robin", "notes.txt"), 10)
	testsupport.WriteClip(t, filepath.Join(root, "filtered_species_files", "american_robin", "c.wav"), 3.0)
	testsupport.WriteFile(t, filepath.Join(root, "stray.wav"), 10)
	if err := os.WriteFile(filepath.Join(root, cfg.Layout.ProgressFile), []byte("wren\n"), 0o644); err != nil {
		t.Fatalf("write progress: %v", err)
	}

	ws, err := workspace.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cats, err := ws.Categories()
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected two categories, got %+v", cats)
	}
	robin := cats[0]
	if robin.Name != "american_robin" || robin.Label != "American Robin" {
		t.Fatalf("unexpected first category %+v", robin)
	}
	if robin.Pending != 2 || robin.Approved != 1 || robin.Completed {
		t.Fatalf("unexpected robin counts %+v", robin)
	}
	if !cats[1].Completed || cats[1].Pending != 0 {
		t.Fatalf("expected wren completed and empty, got %+v", cats[1])
	}

	next, ok, err := ws.NextPending()
	if err != nil || !ok || next.Name != "american_robin" {
		t.Fatalf("NextPending = %+v, %v, %v", next, ok, err)
	}
}

func TestOpenRejectsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.RootDir = filepath.Join(t.TempDir(), "missing")
	if _, err := workspace.Open(cfg); !errors.Is(err, faults.ErrDirectoryUnavailable) {
		t.Fatalf("expected directory unavailable, got %v", err)
	}
	cfg.Paths.RootDir = ""
	if _, err := workspace.Open(cfg); !errors.Is(err, faults.ErrDirectoryUnavailable) {
		t.Fatalf("expected directory unavailable for empty root, got %v", err)
	}
}

func TestCategoryLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategory("robin"))
	ws, err := workspace.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c, err := ws.Category("robin"); err != nil || c.Name != "robin" {
		t.Fatalf("Category(robin) = %+v, %v", c, err)
	}
	for _, name := range []string{"owl", "noise", "../robin", ""} {
		if _, err := ws.Category(name); !errors.Is(err, faults.ErrDirectoryUnavailable) {
			t.Fatalf("Category(%q): expected directory unavailable, got %v", name, err)
		}
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ws, err := workspace.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, err := ws.Acquire()
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if _, err := ws.Acquire(); !errors.Is(err, faults.ErrWorkspaceLocked) {
		t.Fatalf("expected workspace locked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := ws.Acquire()
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = second.Release()
}

func TestLabel(t *testing.T) {
	cases := map[string]string{
		"american_robin":     "American Robin",
		"house-sparrow":      "House Sparrow",
		"Blue Jay":           "Blue Jay",
		"  ":                 "  ",
		"great__horned_owl ": "Great Horned Owl",
	}
	for in, want := range cases {
		if got := workspace.Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}
