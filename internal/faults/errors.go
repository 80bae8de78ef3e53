package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Per-item rejections. The session logs them and advances to the next clip.
var (
	ErrNotFound              = errors.New("clip not found")
	ErrDecodeFailure         = errors.New("decode failure")
	ErrEmptyClip             = errors.New("empty clip")
	ErrDurationMismatch      = errors.New("duration mismatch")
	ErrSourceVanished        = errors.New("source vanished")
	ErrDestinationUnwritable = errors.New("destination unwritable")
)

// Session-level failures. The current category cannot proceed until corrected.
var (
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	ErrProgressAppend       = errors.New("progress append failed")
	ErrWorkspaceLocked      = errors.New("workspace locked")
)

// ErrThresholdReached is returned when an approval would exceed the per-session cap.
// It is a completion signal rather than a failure.
var ErrThresholdReached = errors.New("approval threshold reached")

// Scope describes how far an error is allowed to propagate.
type Scope int

const (
	// ScopeFatal covers anything unclassified; it must be surfaced.
	ScopeFatal Scope = iota
	// ScopeItem errors skip the current clip only.
	ScopeItem
	// ScopeSession errors stop the current category and need operator action.
	ScopeSession
)

func (s Scope) String() string {
	switch s {
	case ScopeItem:
		return "item"
	case ScopeSession:
		return "session"
	default:
		return "fatal"
	}
}

var itemMarkers = []error{
	ErrNotFound,
	ErrDecodeFailure,
	ErrEmptyClip,
	ErrDurationMismatch,
	ErrSourceVanished,
	ErrDestinationUnwritable,
}

var sessionMarkers = []error{
	ErrDirectoryUnavailable,
	ErrProgressAppend,
	ErrWorkspaceLocked,
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error onto its propagation scope.
func Classify(err error) Scope {
	if err == nil {
		return ScopeFatal
	}
	for _, marker := range itemMarkers {
		if errors.Is(err, marker) {
			return ScopeItem
		}
	}
	for _, marker := range sessionMarkers {
		if errors.Is(err, marker) {
			return ScopeSession
		}
	}
	return ScopeFatal
}

// Reason returns a short machine-friendly label for the marker carried by err.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	case errors.Is(err, ErrEmptyClip):
		return "empty_clip"
	case errors.Is(err, ErrDurationMismatch):
		return "duration_mismatch"
	case errors.Is(err, ErrSourceVanished):
		return "source_vanished"
	case errors.Is(err, ErrDestinationUnwritable):
		return "destination_unwritable"
	case errors.Is(err, ErrDirectoryUnavailable):
		return "directory_unavailable"
	case errors.Is(err, ErrProgressAppend):
		return "progress_append"
	case errors.Is(err, ErrWorkspaceLocked):
		return "workspace_locked"
	case errors.Is(err, ErrThresholdReached):
		return "threshold_reached"
	default:
		return "unclassified"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "triage failure"
	}
	return strings.Join(parts, ": ")
}
