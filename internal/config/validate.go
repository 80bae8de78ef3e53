package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateReview(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLayout() error {
	names := map[string]string{
		"layout.approved_dir":       c.Layout.ApprovedDir,
		"layout.noise_dir":          c.Layout.NoiseDir,
		"layout.false_positive_dir": c.Layout.FalsePositiveDir,
		"layout.progress_file":      c.Layout.ProgressFile,
	}
	seen := make(map[string]string, len(names))
	for key, value := range names {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
		if filepath.IsAbs(value) || strings.ContainsRune(value, filepath.Separator) || value == "." || value == ".." {
			return fmt.Errorf("%s must be a plain name inside the root folder, got %q", key, value)
		}
		if other, dup := seen[value]; dup {
			return fmt.Errorf("%s and %s must differ (both %q)", key, other, value)
		}
		seen[value] = key
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.ApprovalThreshold <= 0 {
		return errors.New("review.approval_threshold must be positive")
	}
	d := c.Review.ExpectedDurationSeconds
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return errors.New("review.expected_duration_seconds must be a positive number")
	}
	switch c.Review.Ordering {
	case OrderingSequential, OrderingRandom:
	default:
		return fmt.Errorf("review.ordering must be %q or %q, got %q", OrderingSequential, OrderingRandom, c.Review.Ordering)
	}
	if len(c.Review.Extensions) == 0 {
		return errors.New("review.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.Enabled && len(c.Playback.Command) == 0 {
		return errors.New("playback.command must be set when playback.enabled is true")
	}
	return nil
}
