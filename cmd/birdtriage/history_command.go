package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"birdtriage/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var category string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent review sessions from the audit ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				sessions, err := store.RecentSessions(cmd.Context(), category, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Category", "Started", "Outcome", "Approved", "Noise", "False+", "Skipped"},
					buildSessionRows(sessions),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only show sessions for this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryTotalsCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show every clip outcome recorded for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				sess, err := store.Session(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, ledger.ErrSessionNotFound) {
						return fmt.Errorf("session %s not found", args[0])
					}
					return err
				}
				events, err := store.SessionEvents(cmd.Context(), sess.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Session *ledger.Session `json:"session"`
						Events  []*ledger.Event `json:"events"`
					}{sess, events})
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderSummary("Session "+sess.ID, [][2]string{
					{"Category", sess.Category},
					{"Root", sess.RootDir},
					{"Started", formatTime(sess.StartedAt)},
					{"Finished", formatTime(sess.FinishedAt)},
					{"Outcome", string(sess.Outcome)},
					{"Threshold", strconv.Itoa(sess.Threshold)},
					{"Queue", strconv.Itoa(sess.QueueLength)},
					{"Reviewed", strconv.Itoa(sess.Reviewed())},
				}))
				if len(events) == 0 {
					fmt.Fprintln(out, "No clip events recorded")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, ev := range events {
					rows = append(rows, []string{
						formatTime(ev.RecordedAt),
						shortPath(ev.ClipPath),
						string(ev.Outcome),
						ev.Reason,
						ev.TargetPath,
					})
				}
				fmt.Fprint(out, renderTable([]string{"Time", "Clip", "Outcome", "Reason", "Target"}, rows, nil))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryTotalsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Summarize every recorded session per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				totals, err := store.CategoryTotals(cmd.Context())
				if err != nil {
					return err
				}
				if len(totals) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(totals))
				for _, t := range totals {
					rows = append(rows, []string{
						t.Category,
						strconv.Itoa(t.Sessions),
						strconv.Itoa(t.Approved),
						strconv.Itoa(t.Noise),
						strconv.Itoa(t.FalsePositive),
						strconv.Itoa(t.Skipped),
						formatTime(t.LastStarted),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Category", "Sessions", "Approved", "Noise", "False+", "Skipped", "Last"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func buildSessionRows(sessions []*ledger.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			shortID(s.ID),
			s.Category,
			formatTime(s.StartedAt),
			string(s.Outcome),
			strconv.Itoa(s.Approved),
			strconv.Itoa(s.Noise),
			strconv.Itoa(s.FalsePositive),
			strconv.Itoa(s.Skipped),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p))
}
