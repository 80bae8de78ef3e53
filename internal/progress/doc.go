// Package progress counts approvals against the per-session threshold and
// keeps the append-only record of completed categories.
package progress
