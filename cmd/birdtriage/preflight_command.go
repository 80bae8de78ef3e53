package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"birdtriage/internal/preflight"
	"birdtriage/internal/terminal"
)

const checkLabelWidth = 20

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check folders and the audio player before reviewing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			printChecks(cmd.OutOrStdout(), results)
			if failed := preflight.Failed(results); len(failed) > 0 {
				return preflightError(failed)
			}
			return nil
		},
	}
}

// printChecks writes one aligned "  Name:  [OK] detail" line per result.
func printChecks(w io.Writer, results []preflight.Result) {
	console := terminal.NewConsole(w, shouldColorize(w))
	for _, r := range results {
		tone := checkTone(r)
		line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, r.Name+":", tone)
		if r.Detail != "" {
			line += " " + r.Detail
		}
		console.Print(tone, line)
	}
}

func checkTone(r preflight.Result) terminal.Tone {
	switch {
	case r.Passed:
		return terminal.ToneOK
	case r.Optional:
		return terminal.ToneWarn
	default:
		return terminal.ToneError
	}
}

func preflightError(failed []preflight.Result) error {
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
}
