package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"birdtriage/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := writeSampleConfig(targetPath, overwrite)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.root_dir (or pass --root) to the folder holding one directory per species.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// writeSampleConfig resolves target (the per-user location when empty) and
// writes the sample there, refusing to clobber an existing file unless
// overwrite is set.
func writeSampleConfig(target string, overwrite bool) (string, error) {
	var err error
	if target = strings.TrimSpace(target); target == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(target)
	}
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	if !overwrite {
		_, statErr := os.Stat(target)
		switch {
		case statErr == nil:
			return "", fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
		case !errors.Is(statErr, fs.ErrNotExist):
			return "", fmt.Errorf("check config path: %w", statErr)
		}
	}
	if err := config.CreateSample(target); err != nil {
		return "", err
	}
	return target, nil
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", ctx.configPath, data)
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, err := os.Stat(ctx.configPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			root := cfg.Paths.RootDir
			if root == "" {
				root = "(not set)"
			}
			fmt.Fprint(out, renderSummary("Effective settings", [][2]string{
				{"Root folder", root},
				{"Approval threshold", fmt.Sprintf("%d", cfg.Review.ApprovalThreshold)},
				{"Expected duration", fmt.Sprintf("%.2fs", cfg.Review.ExpectedDurationSeconds)},
				{"Ordering", cfg.Review.Ordering},
				{"Ledger", cfg.LedgerPath()},
			}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
