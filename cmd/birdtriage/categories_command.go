package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"birdtriage/internal/workspace"
)

type categoryJSON struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Pending   int    `json:"pending"`
	Approved  int    `json:"approved"`
	Completed bool   `json:"completed"`
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List category directories with pending and approved counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				cats, err := ws.Categories()
				if err != nil {
					return err
				}
				if asJSON {
					out := make([]categoryJSON, 0, len(cats))
					for _, c := range cats {
						out = append(out, categoryJSON{
							Name:      c.Name,
							Label:     c.Label,
							Pending:   c.Pending,
							Approved:  c.Approved,
							Completed: c.Completed,
						})
					}
					return writeJSON(cmd, out)
				}
				if len(cats) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No category directories in %s\n", ws.Root())
					return nil
				}
				rows := make([][]string, 0, len(cats))
				for _, c := range cats {
					rows = append(rows, []string{
						c.Name,
						c.Label,
						strconv.Itoa(c.Pending),
						strconv.Itoa(c.Approved),
						yesNo(c.Completed),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Category", "Label", "Pending", "Approved", "Completed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
