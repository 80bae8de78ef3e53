package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RootDir  string `toml:"root_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Layout names the directories and files produced inside the root folder.
type Layout struct {
	ApprovedDir      string `toml:"approved_dir"`
	NoiseDir         string `toml:"noise_dir"`
	FalsePositiveDir string `toml:"false_positive_dir"`
	ProgressFile     string `toml:"progress_file"`
}

// Review contains the triage session knobs.
type Review struct {
	ApprovalThreshold       int      `toml:"approval_threshold"`
	ExpectedDurationSeconds float64  `toml:"expected_duration_seconds"`
	Ordering                string   `toml:"ordering"`
	RandomSeed              int64    `toml:"random_seed"`
	Extensions              []string `toml:"extensions"`
	// MaxConsecutiveRejections is the number of back-to-back skipped clips
	// after which the reviewer gets a notice. 0 disables the notice.
	MaxConsecutiveRejections int `toml:"max_consecutive_rejections"`
}

// Playback configures the external audio player.
type Playback struct {
	Enabled  bool     `toml:"enabled"`
	Autoplay bool     `toml:"autoplay"`
	Command  []string `toml:"command"`
}

// Render configures the terminal clip renderer.
type Render struct {
	Enabled bool `toml:"enabled"`
	Width   int  `toml:"width"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for birdtriage.
//
// Configuration sections by subsystem:
//   - Paths: root folder, log and state directories
//   - Layout: output directory names inside the root folder
//   - Review: threshold, expected clip duration, queue ordering
//   - Playback: external player command
//   - Render: terminal renderer
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Layout   Layout   `toml:"layout"`
	Review   Review   `toml:"review"`
	Playback Playback `toml:"playback"`
	Render   Render   `toml:"render"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the expanded location of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or discovers one when path is empty, then
// applies defaults and validates the result. It returns the config, the path
// it was read from (or would be read from), and whether that file existed.
// Unknown keys are rejected so a misspelt setting never silently falls back
// to its default.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate resolves an explicit path as-is. Without one it prefers the
// per-user file, then ./birdtriage.toml, and otherwise reports the per-user
// location as absent.
func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := expandPath("birdtriage.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the log and state directories. The root folder is
// never created: it must already hold the category directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the session audit database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// SessionLogDir returns the directory holding per-session log files.
func (c *Config) SessionLogDir() string {
	return filepath.Join(c.Paths.LogDir, "sessions")
}

// SetRoot replaces the root folder, expanding it like any other configured path.
func (c *Config) SetRoot(root string) error {
	expanded, err := expandPath(strings.TrimSpace(root))
	if err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	c.Paths.RootDir = expanded
	return nil
}

// ExpandPath resolves "~" and relative paths to a clean absolute path. The
// empty string is returned unchanged.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + strings.TrimPrefix(value, "~")
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
