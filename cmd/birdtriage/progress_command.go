package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"birdtriage/internal/workspace"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show categories recorded as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				done, err := ws.Record().Completed()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(done) == 0 {
					fmt.Fprintf(out, "No categories completed yet (%s)\n", ws.Record().Path())
				} else {
					rows := make([][]string, 0, len(done))
					for i, name := range done {
						rows = append(rows, []string{fmt.Sprintf("%d", i+1), name, workspace.Label(name)})
					}
					fmt.Fprint(out, renderTable([]string{"#", "Category", "Label"}, rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft}))
				}

				next, ok, err := ws.NextPending()
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(out, "Next pending category: %s (%d clips)\n", next.Name, next.Pending)
				}
				return nil
			})
		},
	}
}
