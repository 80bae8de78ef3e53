// Package faults defines the error taxonomy shared by the triage engine.
//
// Components wrap their failures with one of the sentinel markers via Wrap so
// callers can branch with errors.Is, and the session state machine uses
// Classify to decide whether an error skips one clip, stops the category, or
// must be surfaced as-is.
package faults
