package terminal

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"birdtriage/internal/clip"
)

var levels = []rune(" ▁▂▃▄▅▆▇█")

const minRenderWidth = 8

// Renderer draws a one-line amplitude strip with a header naming the clip.
type Renderer struct {
	w        io.Writer
	width    int
	colorize bool
	newline  string
}

// NewRenderer returns a renderer writing to w with strips width columns wide.
func NewRenderer(w io.Writer, width int, colorize bool) *Renderer {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	return &Renderer{w: w, width: width, colorize: colorize, newline: "\n"}
}

// SetRaw switches line endings for a terminal in raw mode.
func (r *Renderer) SetRaw(raw bool) {
	if raw {
		r.newline = "\r\n"
	} else {
		r.newline = "\n"
	}
}

// Render writes the header and strip for c.
func (r *Renderer) Render(ctx context.Context, c *clip.Clip, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header := fmt.Sprintf("%s  %.2fs  %d Hz  %s  peak %s",
		label, c.Seconds(), c.SampleRate, channelLabel(c.Channels), peakLabel(c.Peak()))
	strip := Strip(c.Mono(), r.width)
	if r.colorize {
		header = ansiBlue + header + ansiReset
		strip = ansiGreen + strip + ansiReset
	}
	_, err := io.WriteString(r.w, header+r.newline+strip+r.newline)
	return err
}

// Strip reduces samples to width columns of RMS level glyphs.
func Strip(samples []float32, width int) string {
	if width <= 0 || len(samples) == 0 {
		return strings.Repeat(string(levels[0]), max(width, 0))
	}
	var b strings.Builder
	for col := range width {
		start := col * len(samples) / width
		end := (col + 1) * len(samples) / width
		if end <= start {
			end = min(start+1, len(samples))
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += float64(s) * float64(s)
		}
		rms := math.Sqrt(sum / float64(end-start))
		idx := int(math.Round(math.Min(rms, 1) * float64(len(levels)-1)))
		b.WriteRune(levels[idx])
	}
	return b.String()
}

func channelLabel(n int) string {
	switch n {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d ch", n)
	}
}

func peakLabel(peak float32) string {
	if peak <= 0 {
		return "silent"
	}
	return fmt.Sprintf("%.1f dBFS", 20*math.Log10(float64(peak)))
}
