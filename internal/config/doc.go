// Package config loads, normalizes, and validates birdtriage configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the BIRDTRIAGE_ROOT environment
// fallback for the root folder. The Config type centralizes the review knobs
// (approval threshold, expected clip duration, queue ordering), the output
// layout inside the root folder, and the playback/render/logging settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical orderings and extensions, and clear validation
// errors.
package config
