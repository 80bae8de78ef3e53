package router

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"birdtriage/internal/decision"
	"birdtriage/internal/faults"
	"birdtriage/internal/logging"
	"birdtriage/internal/queue"
)

const (
	component       = "router"
	maxNameAttempts = 10000
)

// Option customizes a Router.
type Option func(*Router)

// WithRenameFunc replaces os.Rename for the initial move attempt.
func WithRenameFunc(fn func(oldpath, newpath string) error) Option {
	return func(r *Router) {
		if fn != nil {
			r.rename = fn
		}
	}
}

// WithRemoveFunc replaces os.Remove for deleting the source after a
// cross-device copy.
func WithRemoveFunc(fn func(name string) error) Option {
	return func(r *Router) {
		if fn != nil {
			r.remove = fn
		}
	}
}

// Router moves decided clips into their destination directories.
type Router struct {
	layout Layout
	logger *slog.Logger
	rename func(oldpath, newpath string) error
	remove func(name string) error
}

// New constructs a router for layout.
func New(layout Layout, logger *slog.Logger, opts ...Option) *Router {
	r := &Router{
		layout: layout,
		logger: logging.NewComponentLogger(logger, component),
		rename: os.Rename,
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the directory layout the router writes into.
func (r *Router) Layout() Layout {
	return r.layout
}

// Route resolves the destination path for item. An existing file is never
// targeted: name-1.ext, name-2.ext and so on are tried instead.
func (r *Router) Route(item queue.WorkItem, d decision.Decision) (string, error) {
	dir, err := r.layout.Directory(d, item.Category)
	if err != nil {
		return "", err
	}
	target, err := nextFreePath(dir, filepath.Base(item.Path))
	if err != nil {
		return "", faults.Wrap(faults.ErrDestinationUnwritable, component, "route", dir, err)
	}
	return target, nil
}

// Move routes and commits item in one step and returns the final path.
func (r *Router) Move(ctx context.Context, item queue.WorkItem, d decision.Decision) (string, error) {
	target, err := r.Route(item, d)
	if err != nil {
		return "", err
	}
	if err := r.Commit(ctx, item.Path, target); err != nil {
		return "", err
	}
	return target, nil
}

// Commit moves source to target. The destination directory is created if
// needed, the source is re-checked right before the move, and cross-device
// moves fall back to copy, verify, then delete. On failure the source is left
// in place and no partial destination remains.
func (r *Router) Commit(ctx context.Context, source, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return faults.Wrap(faults.ErrDestinationUnwritable, component, "ensure directory", filepath.Dir(target), err)
	}
	info, err := os.Lstat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return faults.Wrap(faults.ErrSourceVanished, component, "commit", source, err)
		}
		return faults.Wrap(faults.ErrSourceVanished, component, "commit", "stat "+source, err)
	}
	if !info.Mode().IsRegular() {
		return faults.Wrap(faults.ErrSourceVanished, component, "commit", source+" is no longer a regular file", nil)
	}
	if _, err := os.Lstat(target); err == nil {
		return faults.Wrap(faults.ErrDestinationUnwritable, component, "commit", target+" already exists", nil)
	}

	renameErr := r.rename(source, target)
	if renameErr == nil {
		r.logger.Debug("clip moved",
			logging.String("source", source),
			logging.String("target", target),
			logging.String(logging.FieldEventType, "clip_moved"),
		)
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV) {
		r.logger.Debug("cross-device move; copying",
			logging.String("source", source),
			logging.String("target", target),
		)
		return r.copyAcross(source, target, info.Size())
	}
	if _, err := os.Lstat(source); errors.Is(err, fs.ErrNotExist) {
		return faults.Wrap(faults.ErrSourceVanished, component, "commit", source, renameErr)
	}
	return faults.Wrap(faults.ErrDestinationUnwritable, component, "commit", target, renameErr)
}

func (r *Router) copyAcross(source, target string, size int64) error {
	temp, err := copyVerified(source, filepath.Dir(target), size)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !exists(source) {
			return faults.Wrap(faults.ErrSourceVanished, component, "copy", source, err)
		}
		return faults.Wrap(faults.ErrDestinationUnwritable, component, "copy", target, err)
	}
	if err := os.Rename(temp, target); err != nil {
		_ = os.Remove(temp)
		return faults.Wrap(faults.ErrDestinationUnwritable, component, "promote copy", target, err)
	}

	if err := r.remove(source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Someone else removed the source; the verified copy is now the only one.
			return nil
		}
		if rmErr := os.Remove(target); rmErr != nil {
			logging.WarnWithContext(r.logger, "failed to remove copy after source delete failed; duplicate remains", "router_rollback_failed",
				logging.String("target", target),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "delete the duplicate manually"),
				logging.String(logging.FieldImpact, "clip exists in both source and destination"),
			)
		}
		return faults.Wrap(faults.ErrDestinationUnwritable, component, "remove source", source, err)
	}
	return nil
}

func nextFreePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		return "", err
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, attempt, ext))
		if _, err := os.Lstat(candidate); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted filename slots for %s in %s", name, dir)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
