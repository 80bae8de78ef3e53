package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"birdtriage/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists sink names: "stdout", "stderr", or a file path. Files are
	// opened for append and their parent directories are created.
	Outputs []string
	// Source annotates records with file:line. Debug level implies it.
	Source bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler builds the console or JSON handler described by opts.
func NewHandler(opts Options) (slog.Handler, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	source := opts.Source || level.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	w, err := openSinks(opts.Outputs)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return newJSONHandler(w, level, source), nil
	}
	return newConsoleHandler(w, level, source), nil
}

// NewFromConfig creates the process logger. Console output goes to stderr so
// it does not interleave with the review screen; everything is also appended
// to <log_dir>/birdtriage.log.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Outputs: []string{"stderr"}})
	}
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "birdtriage.log"))
	}
	return New(Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: outputs,
	})
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	switch value := strings.ToLower(strings.TrimSpace(level)); value {
	case "":
		return slog.LevelInfo
	case "warning":
		return slog.LevelWarn
	default:
		if err := parsed.UnmarshalText([]byte(value)); err != nil {
			return slog.LevelInfo
		}
		return parsed
	}
}

// openSinks resolves sink names into one writer. Duplicates are opened once
// and an empty list falls back to stderr.
func openSinks(names []string) (io.Writer, error) {
	var writers []io.Writer
	var opened []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(opened, name) {
			continue
		}
		opened = append(opened, name)

		w, err := openSink(name)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openSink(name string) (io.Writer, error) {
	switch name {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return file, nil
}

// newJSONHandler writes one object per line with a UTC "ts" key, lowercase
// levels and short source locations.
func newJSONHandler(w io.Writer, lvl slog.Leveler, source bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: source,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
