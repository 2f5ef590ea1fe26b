package commands

import (
	"fmt"

	"github.com/benvon/todolist/internal/clock"
	"github.com/benvon/todolist/internal/config"
	"github.com/benvon/todolist/internal/database"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	configPath  string
	databaseURL string
}

// NewRootCmd creates the todoctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "todoctl",
		Short:         "Administration tool for the todo list service",
		Long:          "CLI tool for initializing, seeding and inspecting the todo list database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "database", "", "Database URL (overrides DATABASE_URL)")

	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))

	return rootCmd
}

// openRepository loads the configuration and opens the todo repository. The returned
// close function releases the database.
func (o *rootOptions) openRepository() (*database.TodoRepository, func() error, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database.NewTodoRepository(db, clock.System()), db.Close, nil
}

// withRepository runs fn against an open repository and closes it afterwards
func (o *rootOptions) withRepository(cmd *cobra.Command, fn func(repo *database.TodoRepository) error) error {
	repo, closeDB, err := o.openRepository()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDB(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(repo)
}
