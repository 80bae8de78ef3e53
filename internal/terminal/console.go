package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"birdtriage/internal/session"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// Tone selects the colour of a console line.
type Tone int

const (
	ToneInfo Tone = iota
	ToneOK
	ToneWarn
	ToneError
)

func (t Tone) String() string {
	switch t {
	case ToneOK:
		return "OK"
	case ToneWarn:
		return "WARN"
	case ToneError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Console prints session notices for the reviewer. State changes are not
// printed; everything else is one line.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
	newline  string
}

// NewConsole returns a console writing to w.
func NewConsole(w io.Writer, colorize bool) *Console {
	return &Console{w: w, colorize: colorize, newline: "\n"}
}

// SetRaw switches line endings for a terminal in raw mode.
func (c *Console) SetRaw(raw bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if raw {
		c.newline = "\r\n"
	} else {
		c.newline = "\n"
	}
}

// Notify implements session.Observer.
func (c *Console) Notify(n session.Notice) {
	kind, line := describe(n)
	if line == "" {
		return
	}
	c.Print(kind, line)
}

// Help prints the key bindings.
func (c *Console) Help() {
	c.Print(ToneInfo, "keys: [space/a] approve  [n] noise  [f] false positive  [r] replay  [+/-] threshold  [q] quit")
}

// Print writes one line of the given kind.
func (c *Console) Print(kind Tone, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colorize {
		if color := toneColor(kind); color != "" {
			line = color + line + ansiReset
		}
	}
	_, _ = io.WriteString(c.w, line+c.newline)
}

func describe(n session.Notice) (Tone, string) {
	st := n.Status
	switch n.Kind {
	case session.NoticePresented:
		return ToneInfo, fmt.Sprintf("[%d/%d] %s  approved %d/%d",
			st.Total-st.Remaining, st.Total, n.Item.Name(), st.Approved, st.Threshold)
	case session.NoticeRouted:
		return ToneOK, fmt.Sprintf("%s -> %s (%s)", n.Item.Name(), n.Target, n.Message)
	case session.NoticeSkipped:
		return ToneWarn, fmt.Sprintf("skipped %s: %s", n.Item.Name(), reasonLabel(n.Message))
	case session.NoticeRefused:
		return ToneWarn, fmt.Sprintf("%s: %s", n.Item.Name(), n.Message)
	case session.NoticePlaybackFailed, session.NoticeRejectionStreak:
		return ToneWarn, n.Message
	case session.NoticeThresholdChanged:
		return ToneInfo, n.Message
	case session.NoticeCompleted:
		return ToneOK, fmt.Sprintf("%s finished: %s (approved %d, cumulative %d)",
			st.Category, reasonLabel(n.Message), st.Approved, st.Cumulative+st.Approved)
	default:
		return ToneInfo, ""
	}
}

func reasonLabel(reason string) string {
	return strings.ReplaceAll(reason, "_", " ")
}

func toneColor(kind Tone) string {
	switch kind {
	case ToneOK:
		return ansiGreen
	case ToneWarn:
		return ansiYellow
	case ToneError:
		return ansiRed
	case ToneInfo:
		return ansiBlue
	default:
		return ""
	}
}
