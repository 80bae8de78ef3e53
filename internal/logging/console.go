package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one human-readable line per record:
//
//	2026-03-01 12:00:00 WARN  session (robin/b.wav): clip skipped reason="duration mismatch"
//
// Component, category and clip form the subject. The session identifier is
// left to the JSON and session log sinks.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	source bool
	attrs  []kv
	prefix []string
}

func newConsoleHandler(w io.Writer, lvl slog.Leveler, source bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.prefix, attr)
		return true
	})

	var subj subject
	rest := fields[:0]
	for _, field := range fields {
		if !subj.take(field) {
			rest = append(rest, field)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')
	if s := subj.String(); s != "" {
		buf.WriteString(s)
		buf.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(msg)
	if h.source {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	for _, field := range rest {
		if field.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(field.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(field.value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = append([]kv(nil), h.attrs...)
	flattenAttrs(&next.attrs, h.prefix, attrs)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = append(append([]string(nil), h.prefix...), name)
	return &next
}

// subject collects the first component, category and clip seen on a record.
// Session identifiers are swallowed.
type subject struct {
	component string
	category  string
	clip      string
}

func (s *subject) take(field kv) bool {
	var slot *string
	switch field.key {
	case FieldComponent:
		slot = &s.component
	case FieldCategory:
		slot = &s.category
	case FieldClip:
		slot = &s.clip
	case FieldSessionID:
		return true
	default:
		return false
	}
	if *slot == "" {
		*slot = strings.TrimSpace(attrString(field.value))
	}
	return true
}

func (s subject) String() string {
	where := s.category
	if s.clip != "" {
		if where != "" {
			where += "/"
		}
		where += s.clip
	}
	switch {
	case s.component == "":
		return where
	case where == "":
		return s.component
	default:
		return s.component + " (" + where + ")"
	}
}

// levelLabel pads to a fixed width so messages line up.
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
