package commands

import (
	"fmt"
	"sort"

	"github.com/benvon/todolist/internal/database"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show todo statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(repo *database.TodoRepository) error {
				stats, err := repo.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total:     %d\n", stats.Total)
				fmt.Fprintf(out, "Completed: %d\n", stats.Completed)
				fmt.Fprintf(out, "Pending:   %d\n", stats.Pending)
				fmt.Fprintf(out, "Overdue:   %d\n", stats.Overdue)

				if len(stats.Categories) == 0 {
					return nil
				}
				names := make([]string, 0, len(stats.Categories))
				for name := range stats.Categories {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(out, "Categories:")
				for _, name := range names {
					fmt.Fprintf(out, "  %s: %d\n", name, stats.Categories[name])
				}
				return nil
			})
		},
	}
}
