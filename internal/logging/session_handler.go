package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionLog is a log file dedicated to one review session.
type SessionLog struct {
	Path   string
	Logger *slog.Logger
	file   *os.File
}

// Close flushes and closes the session log file.
func (s *SessionLog) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// OpenSessionLog creates <dir>/<stamp>-<category>.log and returns a logger
// that writes to both base and the new file, tagging every record with the
// session identifier.
func OpenSessionLog(base *slog.Logger, dir, category, sessionID, format string, now time.Time) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure session log directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", now.UTC().Format("20060102T150405Z"), sanitizeFileComponent(category))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log %s: %w", path, err)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	var fileHandler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		fileHandler = newJSONHandler(file, levelVar, false)
	} else {
		fileHandler = newConsoleHandler(file, levelVar, false)
	}

	var baseHandler slog.Handler
	if base != nil {
		baseHandler = base.Handler()
	}
	handler := TeeHandler(baseHandler, fileHandler).WithAttrs([]slog.Attr{slog.String(FieldSessionID, sessionID)})
	logger := slog.New(handler)
	return &SessionLog{Path: path, Logger: logger, file: file}, nil
}

func sanitizeFileComponent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "session"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < ' ':
			b.WriteByte('_')
		case r == ' ':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
