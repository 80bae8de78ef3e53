// Package clip decodes candidate audio files into in-memory sample buffers and
// rejects files that fail structural checks.
//
// Rejections are reported in priority order: the file is gone (NotFound), the
// container cannot be parsed (DecodeFailure), there are no samples (EmptyClip),
// or the decoded length differs from the configured expected duration
// (DurationMismatch). All of them carry a faults marker with item scope, so the
// session skips the clip and continues.
package clip
