package queue

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"birdtriage/internal/config"
	"birdtriage/internal/faults"
)

const component = "queue"

// WorkItem identifies one candidate clip.
type WorkItem struct {
	Path     string
	Category string
	// Position is the 1-based index of the item in the built queue.
	Position int
}

// Name returns the file name of the candidate.
func (w WorkItem) Name() string {
	return filepath.Base(w.Path)
}

// Options controls which files are admitted and how they are ordered.
type Options struct {
	Ordering   string
	Seed       int64
	Extensions []string
}

// Queue is the fixed, ordered work list of a session.
type Queue struct {
	mu       sync.Mutex
	category string
	ordering string
	items    []WorkItem
	next     int
}

// Build lists dir and returns the work queue for category. It fails with
// faults.ErrDirectoryUnavailable when dir cannot be listed.
func Build(dir, category string, opts Options) (*Queue, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "build", dir, err)
	}
	if !info.IsDir() {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "build", dir+" is not a directory", nil)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "build", dir, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDirectoryUnavailable, component, "build", dir, err)
	}

	allowed := extensionSet(opts.Extensions)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	ordering := opts.Ordering
	if ordering == "" {
		ordering = config.OrderingSequential
	}
	switch ordering {
	case config.OrderingSequential:
	case config.OrderingRandom:
		shuffle(names, opts.Seed)
	default:
		return nil, fmt.Errorf("queue: unknown ordering %q", opts.Ordering)
	}

	items := make([]WorkItem, len(names))
	for i, name := range names {
		items[i] = WorkItem{Path: filepath.Join(absDir, name), Category: category, Position: i + 1}
	}
	return &Queue{category: category, ordering: ordering, items: items}, nil
}

func extensionSet(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		extensions = config.Default().Review.Extensions
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if normalized := config.NormalizeExtension(ext); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// shuffle applies a uniform Fisher-Yates permutation. A zero seed draws one from the clock.
func shuffle(names []string, seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
}

// Category returns the category the queue was built for.
func (q *Queue) Category() string {
	return q.category
}

// Ordering returns the policy the queue was built with.
func (q *Queue) Ordering() string {
	return q.ordering
}

// Next pops the head of the queue. It returns false once the queue is empty.
func (q *Queue) Next() (WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return WorkItem{}, false
	}
	item := q.items[q.next]
	q.next++
	return item, true
}

// Peek returns the head of the queue without popping it.
func (q *Queue) Peek() (WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return WorkItem{}, false
	}
	return q.items[q.next], true
}

// Len returns the number of items the queue was built with.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remaining returns the number of items not yet popped.
func (q *Queue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.next
}

// Items returns a snapshot of the full ordered list, popped items included.
func (q *Queue) Items() []WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]WorkItem, len(q.items))
	copy(out, q.items)
	return out
}
