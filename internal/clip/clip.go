package clip

import (
	"math"
	"path/filepath"
	"time"
)

// Format identifies the container a clip was decoded from.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Clip is a decoded candidate. Samples are interleaved and normalized to [-1, 1].
type Clip struct {
	Path       string
	Format     Format
	SampleRate int
	Channels   int
	Samples    []float32
}

// Name returns the clip's file name, used as its display label.
func (c *Clip) Name() string {
	return filepath.Base(c.Path)
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c == nil || c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Seconds returns the clip length derived from frames and sample rate.
func (c *Clip) Seconds() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Duration returns Seconds as a time.Duration.
func (c *Clip) Duration() time.Duration {
	return time.Duration(c.Seconds() * float64(time.Second))
}

// Mono folds the interleaved channels into one averaged channel.
func (c *Clip) Mono() []float32 {
	frames := c.Frames()
	if c.Channels == 1 {
		return c.Samples[:frames]
	}
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		base := i * c.Channels
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[base+ch]
		}
		out[i] = sum / float32(c.Channels)
	}
	return out
}

// Peak returns the largest absolute sample value.
func (c *Clip) Peak() float32 {
	var peak float64
	for _, s := range c.Samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return float32(peak)
}

// matchesDuration reports whether frames at rate last exactly expected seconds.
func matchesDuration(frames, rate int, expected float64) bool {
	return float64(frames) == expected*float64(rate)
}
