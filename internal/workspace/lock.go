package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"birdtriage/internal/faults"
)

// LockFileName is created in the root folder while a review is running.
const LockFileName = ".birdtriage.lock"

// Lock is an exclusive claim on a root folder.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the root folder lock without blocking. A lock held by another
// process yields ErrWorkspaceLocked.
func (w *Workspace) Acquire() (*Lock, error) {
	path := filepath.Join(w.layout.Root, LockFileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrWorkspaceLocked, component, "acquire lock", path, err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrWorkspaceLocked, component, "acquire lock",
			fmt.Sprintf("another review is running in %s", w.layout.Root), nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the root folder. The lock file itself is left behind.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
