package router_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"birdtriage/internal/config"
	"birdtriage/internal/decision"
	"birdtriage/internal/faults"
	"birdtriage/internal/logging"
	"birdtriage/internal/queue"
	"birdtriage/internal/router"
	"birdtriage/internal/testsupport"
)

func newRouter(t *testing.T, opts ...router.Option) (*router.Router, string) {
	t.Helper()
	root := t.TempDir()
	layout := router.NewLayout(root, config.Default().Layout)
	return router.New(layout, logging.NewNop(), opts...), root
}

func seedItem(t *testing.T, root, category, name string) queue.WorkItem {
	t.Helper()
	path := filepath.Join(root, category, name)
	testsupport.WriteFile(t, path, 512)
	return queue.WorkItem{Path: path, Category: category, Position: 1}
}

func TestLayoutDirectory(t *testing.T) {
	layout := router.NewLayout("/data", config.Default().Layout)
	cases := []struct {
		d        decision.Decision
		category string
		want     string
	}{
		{decision.Approve, "robin", "/data/filtered_species_files/robin"},
		{decision.Approve, "sparrow", "/data/filtered_species_files/sparrow"},
		{decision.Noise, "robin", "/data/noise"},
		{decision.Noise, "sparrow", "/data/noise"},
		{decision.FalsePositive, "robin", "/data/false_positive"},
	}
	for _, tc := range cases {
		got, err := layout.Directory(tc.d, tc.category)
		if err != nil {
			t.Fatalf("Directory(%s, %s): %v", tc.d, tc.category, err)
		}
		if got != tc.want {
			t.Fatalf("Directory(%s, %s) = %q, want %q", tc.d, tc.category, got, tc.want)
		}
	}
	if _, err := layout.Directory("maybe", "robin"); err == nil {
		t.Fatal("expected error for unknown decision")
	}
	if !layout.Reserved("noise") || layout.Reserved("robin") {
		t.Fatal("unexpected reserved result")
	}
}

func TestMoveApproveCreatesDirectory(t *testing.T) {
	r, root := newRouter(t)
	item := seedItem(t, root, "robin", "a.wav")

	target, err := r.Move(context.Background(), item, decision.Approve)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := filepath.Join(root, "filtered_species_files", "robin", "a.wav")
	if target != want {
		t.Fatalf("target = %q, want %q", target, want)
	}
	if _, err := os.Stat(item.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be gone, stat err=%v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("target missing: %v", err)
	}
}

func TestRouteAvoidsCollisions(t *testing.T) {
	r, root := newRouter(t)
	testsupport.WriteFile(t, filepath.Join(root, "noise", "a.wav"), 4)
	testsupport.WriteFile(t, filepath.Join(root, "noise", "a-1.wav"), 4)

	item := seedItem(t, root, "robin", "a.wav")
	target, err := r.Move(context.Background(), item, decision.Noise)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if filepath.Base(target) != "a-2.wav" {
		t.Fatalf("expected a-2.wav, got %q", target)
	}
	data, err := os.ReadFile(filepath.Join(root, "noise", "a.wav"))
	if err != nil || len(data) != 4 {
		t.Fatalf("existing file was disturbed: len=%d err=%v", len(data), err)
	}
}

func TestCommitSourceVanished(t *testing.T) {
	r, root := newRouter(t)
	item := seedItem(t, root, "robin", "a.wav")
	target, err := r.Route(item, decision.FalsePositive)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if err := os.Remove(item.Path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	err = r.Commit(context.Background(), item.Path, target)
	if !errors.Is(err, faults.ErrSourceVanished) {
		t.Fatalf("expected ErrSourceVanished, got %v", err)
	}
	if faults.Classify(err) != faults.ScopeItem {
		t.Fatal("source vanished should be item scoped")
	}
}

func TestCommitDestinationUnwritable(t *testing.T) {
	r, root := newRouter(t)
	item := seedItem(t, root, "robin", "a.wav")
	// A regular file where the noise directory should be blocks MkdirAll.
	testsupport.WriteFile(t, filepath.Join(root, "noise"), 1)

	_, err := r.Move(context.Background(), item, decision.Noise)
	if !errors.Is(err, faults.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if _, err := os.Stat(item.Path); err != nil {
		t.Fatalf("source must remain after failure: %v", err)
	}
}

func TestCommitRefusesExistingTarget(t *testing.T) {
	r, root := newRouter(t)
	item := seedItem(t, root, "robin", "a.wav")
	target := filepath.Join(root, "noise", "a.wav")
	testsupport.WriteFile(t, target, 3)

	if err := r.Commit(context.Background(), item.Path, target); !errors.Is(err, faults.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if _, err := os.Stat(item.Path); err != nil {
		t.Fatalf("source must remain: %v", err)
	}
}

func exdevRename(oldpath, newpath string) error {
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: unix.EXDEV}
}

func TestCommitCrossDeviceFallsBackToVerifiedCopy(t *testing.T) {
	r, root := newRouter(t, router.WithRenameFunc(exdevRename))
	item := seedItem(t, root, "robin", "a.wav")
	original, err := os.ReadFile(item.Path)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	target, err := r.Move(context.Background(), item, decision.Approve)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	copied, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if !bytes.Equal(original, copied) {
		t.Fatal("copied content differs from source")
	}
	if _, err := os.Stat(item.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be deleted after verified copy, stat err=%v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("read target dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the moved clip, found %d entries", len(entries))
	}
}

func TestCommitOtherRenameFailureKeepsSource(t *testing.T) {
	failing := func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: unix.EACCES}
	}
	r, root := newRouter(t, router.WithRenameFunc(failing))
	item := seedItem(t, root, "robin", "a.wav")

	_, err := r.Move(context.Background(), item, decision.Noise)
	if !errors.Is(err, faults.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if _, err := os.Stat(item.Path); err != nil {
		t.Fatalf("source must remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "noise", "a.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no destination should exist, stat err=%v", err)
	}
}

func TestCommitCrossDeviceRollsBackCopyWhenSourceCannotBeDeleted(t *testing.T) {
	stuck := func(name string) error {
		return &os.PathError{Op: "remove", Path: name, Err: unix.EACCES}
	}
	r, root := newRouter(t, router.WithRenameFunc(exdevRename), router.WithRemoveFunc(stuck))
	item := seedItem(t, root, "robin", "a.wav")

	_, err := r.Move(context.Background(), item, decision.Approve)
	if !errors.Is(err, faults.ErrDestinationUnwritable) {
		t.Fatalf("expected ErrDestinationUnwritable, got %v", err)
	}
	if _, err := os.Stat(item.Path); err != nil {
		t.Fatalf("source must remain: %v", err)
	}
	approved := filepath.Join(root, config.Default().Layout.ApprovedDir, "robin")
	entries, err := os.ReadDir(approved)
	if err != nil {
		t.Fatalf("read approved dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("copy and temp files must be removed, found %d entries", len(entries))
	}
}

func TestCommitCrossDeviceSourceGoneAfterCopyKeepsCopy(t *testing.T) {
	gone := func(name string) error {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	r, root := newRouter(t, router.WithRenameFunc(exdevRename), router.WithRemoveFunc(gone))
	item := seedItem(t, root, "robin", "a.wav")

	target, err := r.Move(context.Background(), item, decision.FalsePositive)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("verified copy must stand: %v", err)
	}
}
