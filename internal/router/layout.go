package router

import (
	"fmt"
	"path/filepath"

	"birdtriage/internal/config"
	"birdtriage/internal/decision"
)

// Layout resolves the directories produced inside a root folder.
type Layout struct {
	Root             string
	ApprovedDir      string
	NoiseDir         string
	FalsePositiveDir string
}

// NewLayout anchors the configured directory names at root.
func NewLayout(root string, names config.Layout) Layout {
	return Layout{
		Root:             root,
		ApprovedDir:      names.ApprovedDir,
		NoiseDir:         names.NoiseDir,
		FalsePositiveDir: names.FalsePositiveDir,
	}
}

// CategoryDir returns the source directory of a category.
func (l Layout) CategoryDir(category string) string {
	return filepath.Join(l.Root, category)
}

// ApprovedCategoryDir returns where approved clips of category are kept.
func (l Layout) ApprovedCategoryDir(category string) string {
	return filepath.Join(l.Root, l.ApprovedDir, category)
}

// Directory maps a decision and category onto its destination directory.
// Noise and false positives share one directory regardless of category.
func (l Layout) Directory(d decision.Decision, category string) (string, error) {
	switch d {
	case decision.Approve:
		return l.ApprovedCategoryDir(category), nil
	case decision.Noise:
		return filepath.Join(l.Root, l.NoiseDir), nil
	case decision.FalsePositive:
		return filepath.Join(l.Root, l.FalsePositiveDir), nil
	default:
		return "", fmt.Errorf("router: unknown decision %q", d)
	}
}

// Reserved reports whether name is one of the layout's own top-level directories.
func (l Layout) Reserved(name string) bool {
	return name == l.ApprovedDir || name == l.NoiseDir || name == l.FalsePositiveDir
}
