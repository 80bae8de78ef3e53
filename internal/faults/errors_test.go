package faults_test

import (
	"errors"
	"strings"
	"testing"

	"birdtriage/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrDecodeFailure, "clip", "decode", "/tmp/a.wav", base)
	if !errors.Is(err, faults.ErrDecodeFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"clip", "decode", "/tmp/a.wav", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerOrCause(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if err == nil || err.Error() != "triage failure" {
		t.Fatalf("unexpected error %v", err)
	}
	if scope := faults.Classify(err); scope != faults.ScopeFatal {
		t.Fatalf("expected fatal scope, got %s", scope)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		marker error
		scope  faults.Scope
		reason string
	}{
		{faults.ErrNotFound, faults.ScopeItem, "not_found"},
		{faults.ErrDecodeFailure, faults.ScopeItem, "decode_failure"},
		{faults.ErrEmptyClip, faults.ScopeItem, "empty_clip"},
		{faults.ErrDurationMismatch, faults.ScopeItem, "duration_mismatch"},
		{faults.ErrSourceVanished, faults.ScopeItem, "source_vanished"},
		{faults.ErrDestinationUnwritable, faults.ScopeItem, "destination_unwritable"},
		{faults.ErrDirectoryUnavailable, faults.ScopeSession, "directory_unavailable"},
		{faults.ErrProgressAppend, faults.ScopeSession, "progress_append"},
		{faults.ErrWorkspaceLocked, faults.ScopeSession, "workspace_locked"},
	}
	for _, tc := range cases {
		err := faults.Wrap(tc.marker, "test", "op", "msg", errors.New("cause"))
		if got := faults.Classify(err); got != tc.scope {
			t.Fatalf("%v: expected scope %s, got %s", tc.marker, tc.scope, got)
		}
		if got := faults.Reason(err); got != tc.reason {
			t.Fatalf("%v: expected reason %q, got %q", tc.marker, tc.reason, got)
		}
	}

	if scope := faults.Classify(errors.New("other")); scope != faults.ScopeFatal {
		t.Fatalf("expected fatal for unclassified error, got %s", scope)
	}
	if reason := faults.Reason(errors.New("other")); reason != "unclassified" {
		t.Fatalf("unexpected reason %q", reason)
	}
}
