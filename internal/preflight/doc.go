// Package preflight provides readiness checks for the filesystem paths and
// external tools birdtriage depends on.
//
// The review command runs RunAll before opening a session and refuses to
// start when a required check fails. The "birdtriage preflight" command prints
// every result. Optional checks (the audio player when playback is disabled)
// are reported but never block a review.
package preflight
