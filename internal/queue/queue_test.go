package queue_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"birdtriage/internal/config"
	"birdtriage/internal/faults"
	"birdtriage/internal/queue"
	"birdtriage/internal/testsupport"
)

func seedCategory(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "robin")
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(dir, name), 8)
	}
	return dir
}

func TestBuildListsRecognizedFilesOnly(t *testing.T) {
	dir := seedCategory(t, "c.wav", "a.WAV", "b.mp3", "notes.txt", ".hidden.txt", "d.flac")
	if err := os.MkdirAll(filepath.Join(dir, "nested.wav"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "nested.wav", "inner.wav"), 8)

	q, err := queue.Build(dir, "robin", queue.Options{Extensions: []string{".wav", "mp3"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var got []string
	for _, item := range q.Items() {
		got = append(got, item.Name())
		if item.Category != "robin" {
			t.Fatalf("unexpected category %q", item.Category)
		}
		if !filepath.IsAbs(item.Path) {
			t.Fatalf("expected absolute path, got %q", item.Path)
		}
	}
	want := []string{"a.WAV", "b.mp3", "c.wav"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestNextDrainsThenReportsEmpty(t *testing.T) {
	dir := seedCategory(t, "a.wav", "b.wav", "c.wav")
	q, err := queue.Build(dir, "robin", queue.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	n := q.Len()
	for i := 1; i <= n; i++ {
		item, ok := q.Next()
		if !ok {
			t.Fatalf("pop %d reported empty", i)
		}
		if item.Position != i {
			t.Fatalf("expected position %d, got %d", i, item.Position)
		}
		if q.Remaining() != n-i {
			t.Fatalf("expected %d remaining, got %d", n-i, q.Remaining())
		}
	}
	for range 2 {
		if _, ok := q.Next(); ok {
			t.Fatal("expected empty queue")
		}
	}
	if _, ok := q.Peek(); ok {
		t.Fatal("expected empty peek")
	}
}

func TestRandomOrderingIsPermutationAndSeeded(t *testing.T) {
	names := []string{"a.wav", "b.wav", "c.wav", "d.wav", "e.wav", "f.wav", "g.wav", "h.wav"}
	dir := seedCategory(t, names...)

	build := func(seed int64) []string {
		q, err := queue.Build(dir, "robin", queue.Options{Ordering: config.OrderingRandom, Seed: seed})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		var out []string
		for {
			item, ok := q.Next()
			if !ok {
				return out
			}
			out = append(out, item.Name())
		}
	}

	first := build(42)
	second := build(42)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", first, second)
		}
	}
	sorted := append([]string(nil), first...)
	sort.Strings(sorted)
	for i := range names {
		if sorted[i] != names[i] {
			t.Fatalf("random order is not a permutation: %v", first)
		}
	}
}

func TestQueueIsFixedOnceBuilt(t *testing.T) {
	dir := seedCategory(t, "a.wav")
	q, err := queue.Build(dir, "robin", queue.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "late.wav"), 8)
	if q.Len() != 1 {
		t.Fatalf("queue changed after build: %d items", q.Len())
	}
}

func TestBuildDirectoryUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	_, err := queue.Build(missing, "absent", queue.Options{})
	if !errors.Is(err, faults.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if faults.Classify(err) != faults.ScopeSession {
		t.Fatalf("expected session scope, got %v", faults.Classify(err))
	}

	file := filepath.Join(t.TempDir(), "file.wav")
	testsupport.WriteFile(t, file, 8)
	if _, err := queue.Build(file, "file", queue.Options{}); !errors.Is(err, faults.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable for a file, got %v", err)
	}
}

func TestBuildEmptyCategory(t *testing.T) {
	dir := seedCategory(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	q, err := queue.Build(dir, "robin", queue.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
	if _, ok := q.Next(); ok {
		t.Fatal("expected empty pop")
	}
}
