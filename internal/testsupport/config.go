package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"birdtriage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The root folder exists and playback is disabled so tests never spawn a player.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "root")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Playback.Enabled = false
	cfgVal.Render.Enabled = false

	if err := os.MkdirAll(cfgVal.Paths.RootDir, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithThreshold overrides the approval threshold.
func WithThreshold(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Review.ApprovalThreshold = n
	}
}

// WithOrdering overrides the queue ordering policy and seed.
func WithOrdering(ordering string, seed int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Review.Ordering = ordering
		b.cfg.Review.RandomSeed = seed
	}
}

// WithCategory creates an empty category directory under the root folder.
func WithCategory(name string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.MkdirAll(filepath.Join(b.cfg.Paths.RootDir, name), 0o755); err != nil {
			b.t.Fatalf("mkdir category %s: %v", name, err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// CategoryDir returns the directory of category under the configured root.
func CategoryDir(cfg *config.Config, category string) string {
	return filepath.Join(cfg.Paths.RootDir, category)
}
