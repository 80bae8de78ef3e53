// Package session runs one triage pass over a single category directory.
//
// A Session owns the queue, the approval tracker, and the per-clip state
// machine (Idle, Loading, Ready, Deciding, Routing, Skipped, Error,
// Completed). Decisions arrive on a channel of decision.Event values; the
// session never reads the keyboard itself. Per-clip failures are logged and
// skipped, while session-scoped failures end Run with an error. Completion
// appends the category to the progress record exactly once.
package session
