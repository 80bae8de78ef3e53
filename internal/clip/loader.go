package clip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"birdtriage/internal/faults"
)

const component = "decoder"

// Loader decodes and validates candidate files.
type Loader struct {
	expected float64
	decoders map[string]decodeFunc
}

// NewLoader returns a loader that accepts clips lasting exactly expectedSeconds.
func NewLoader(expectedSeconds float64) *Loader {
	return &Loader{
		expected: expectedSeconds,
		decoders: map[string]decodeFunc{
			".wav":  decodeWAV,
			".wave": decodeWAV,
			".mp3":  decodeMP3,
		},
	}
}

// ExpectedSeconds returns the required clip length.
func (l *Loader) ExpectedSeconds() float64 {
	return l.expected
}

// Supports reports whether the loader has a decoder for the file extension.
func (l *Loader) Supports(path string) bool {
	_, ok := l.decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load decodes path and validates it. The returned error carries one of
// faults.ErrNotFound, faults.ErrDecodeFailure, faults.ErrEmptyClip or
// faults.ErrDurationMismatch.
func (l *Loader) Load(ctx context.Context, path string) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, component, "stat", path, err)
		}
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "stat", path+" is not a regular file", nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := l.decoders[ext]
	if !ok {
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "decode", fmt.Sprintf("no decoder for %q", ext), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, component, "open", path, err)
		}
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "open", path, err)
	}
	defer file.Close()

	out, err := decode(file)
	switch {
	case errors.Is(err, errNoSamples):
		return nil, faults.Wrap(faults.ErrEmptyClip, component, "decode", path, nil)
	case err != nil:
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "decode", path, err)
	}
	if out.sampleRate <= 0 || out.channels <= 0 {
		return nil, faults.Wrap(faults.ErrDecodeFailure, component, "decode", fmt.Sprintf("%s: invalid sample rate %d", path, out.sampleRate), nil)
	}

	clip := &Clip{
		Path:       path,
		Format:     Format(strings.TrimPrefix(ext, ".")),
		SampleRate: out.sampleRate,
		Channels:   out.channels,
		Samples:    out.samples,
	}
	if clip.Format == "wave" {
		clip.Format = FormatWAV
	}
	if clip.Frames() == 0 {
		return nil, faults.Wrap(faults.ErrEmptyClip, component, "validate", path, nil)
	}
	if !matchesDuration(clip.Frames(), clip.SampleRate, l.expected) {
		msg := fmt.Sprintf("%s lasts %.3fs, expected %.3fs", path, clip.Seconds(), l.expected)
		if clip.Format == FormatMP3 && !MP3Reachable(clip.SampleRate, l.expected) {
			msg += fmt.Sprintf(" (unreachable for mp3 at %d Hz: decodes in %d-frame blocks)", clip.SampleRate, MP3BlockFrames(clip.SampleRate))
		}
		return nil, faults.Wrap(faults.ErrDurationMismatch, component, "validate", msg, nil)
	}
	return clip, nil
}
