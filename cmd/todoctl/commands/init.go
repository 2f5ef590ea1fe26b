package commands

import (
	"fmt"

	"github.com/benvon/todolist/internal/database"
	"github.com/spf13/cobra"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the todos table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database creates the schema.
			return opts.withRepository(cmd, func(repo *database.TodoRepository) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Database initialized")
				return nil
			})
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample todos into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(repo *database.TodoRepository) error {
				seeded, err := repo.SeedIfEmpty(cmd.Context())
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "Database already has todos, nothing seeded")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d sample todos\n", len(database.SampleTodos()))
				return nil
			})
		},
	}
}
