package preflight

import (
	"context"
	"path/filepath"

	"birdtriage/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Root folder", cfg.Paths.RootDir))
	results = append(results, CheckProgressRecord(filepath.Join(cfg.Paths.RootDir, cfg.Layout.ProgressFile)))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	player := CheckBinary(ctx, "Audio player", firstOrEmpty(cfg.Playback.Command))
	if !cfg.Playback.Enabled {
		player.Optional = true
		if player.Passed {
			player.Detail += " (playback disabled)"
		} else {
			player.Detail = "playback disabled"
		}
	}
	results = append(results, player)

	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
