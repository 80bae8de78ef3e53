package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneSessionLogs removes *.log files in dir last modified more than
// retentionDays ago and returns how many were removed. A retentionDays value
// of 0 disables pruning; a missing dir is not an error.
func PruneSessionLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 || dir == "" {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0, fmt.Errorf("list session logs: %w", err)
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "session log prune failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check log_dir ownership"),
				String(FieldImpact, "old session log stays on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("session logs pruned",
			Int("removed", removed),
			String("dir", dir),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed, nil
}
