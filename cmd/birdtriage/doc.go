// Package main hosts the birdtriage CLI entrypoint and command graph.
//
// The Cobra-based command tree runs interactive review sessions over one
// category directory at a time and reports on the root folder: category
// progress, the completed-category record, and the session history kept in
// the audit ledger. Configuration resolution and logging setup live in the
// command context so subcommands only wire internal packages together.
package main
