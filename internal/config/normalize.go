package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLayout()
	c.normalizeReview()
	c.normalizePlayback()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		if value, ok := os.LookupEnv("BIRDTRIAGE_ROOT"); ok {
			c.Paths.RootDir = strings.TrimSpace(value)
		}
	}
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLayout() {
	c.Layout.ApprovedDir = defaultString(c.Layout.ApprovedDir, defaultApprovedDir)
	c.Layout.NoiseDir = defaultString(c.Layout.NoiseDir, defaultNoiseDir)
	c.Layout.FalsePositiveDir = defaultString(c.Layout.FalsePositiveDir, defaultFalsePositiveDir)
	c.Layout.ProgressFile = defaultString(c.Layout.ProgressFile, defaultProgressFile)
}

func (c *Config) normalizeReview() {
	c.Review.Ordering = strings.ToLower(strings.TrimSpace(c.Review.Ordering))
	switch c.Review.Ordering {
	case "", "sequential", "stable", "directory":
		c.Review.Ordering = OrderingSequential
	case "random", "randomized", "shuffle":
		c.Review.Ordering = OrderingRandom
	}

	if c.Review.MaxConsecutiveRejections < 0 {
		c.Review.MaxConsecutiveRejections = 0
	}

	exts := make([]string, 0, len(c.Review.Extensions))
	seen := make(map[string]struct{}, len(c.Review.Extensions))
	for _, ext := range c.Review.Extensions {
		normalized := NormalizeExtension(ext)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Review.Extensions = exts
}

func (c *Config) normalizePlayback() {
	cmd := make([]string, 0, len(c.Playback.Command))
	for _, part := range c.Playback.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cmd = append(cmd, trimmed)
		}
	}
	if len(cmd) == 0 {
		cmd = defaultPlayerCommand()
	}
	c.Playback.Command = cmd
}

func (c *Config) normalizeRender() {
	if c.Render.Width <= 0 {
		c.Render.Width = defaultRenderWidth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// NormalizeExtension lowercases an extension and ensures the leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
