package progress

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"birdtriage/internal/faults"
)

// Record is the append-only list of completed categories, one per line.
type Record struct {
	mu   sync.Mutex
	path string
}

// NewRecord returns a record stored at path.
func NewRecord(path string) *Record {
	return &Record{path: path}
}

// Path returns the record's file location.
func (r *Record) Path() string {
	return r.path
}

// Append adds category as one line with a single write and fsyncs it. Repeated
// appends of the same category are kept; the record is a history.
func (r *Record) Append(category string) error {
	category = strings.TrimSpace(category)
	if category == "" || strings.ContainsAny(category, "\r\n") {
		return faults.Wrap(faults.ErrProgressAppend, component, "append", fmt.Sprintf("invalid category %q", category), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return faults.Wrap(faults.ErrProgressAppend, component, "open", r.path, err)
	}
	if _, err := f.Write([]byte(category + "\n")); err != nil {
		_ = f.Close()
		return faults.Wrap(faults.ErrProgressAppend, component, "write", r.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return faults.Wrap(faults.ErrProgressAppend, component, "sync", r.path, err)
	}
	if err := f.Close(); err != nil {
		return faults.Wrap(faults.ErrProgressAppend, component, "close", r.path, err)
	}
	return nil
}

// Completed returns the recorded categories de-duplicated in first-seen order.
// A missing record means nothing has been completed yet.
func (r *Record) Completed() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open progress record: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read progress record: %w", err)
	}
	return out, nil
}

// CompletedSet returns Completed as a set.
func (r *Record) CompletedSet() (map[string]struct{}, error) {
	list, err := r.Completed()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(list))
	for _, name := range list {
		set[name] = struct{}{}
	}
	return set, nil
}

// CountApproved counts the regular, non-hidden files in an approved directory.
// A directory that does not exist yet holds zero clips.
func CountApproved(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan approved directory %s: %w", filepath.Clean(dir), err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		count++
	}
	return count, nil
}
