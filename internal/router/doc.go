// Package router maps reviewer decisions onto destination directories and
// moves clips there without ever overwriting or losing a file.
//
// Approved clips go to <root>/<approved_dir>/<category>; noise and false
// positives go to shared directories. Moves are plain renames; across
// filesystems the router copies into a temporary sibling, verifies the hash,
// renames it into place and only then deletes the source.
package router
