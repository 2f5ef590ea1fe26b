package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/todolist/internal/database"
	"github.com/benvon/todolist/internal/models"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter, category, sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Long:  "List todos using the same filter, category and sort options as GET /api/todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(repo *database.TodoRepository) error {
				todos, err := repo.List(cmd.Context(), database.ListOptions{
					Filter:   models.TodoFilter(filter),
					Category: category,
					Sort:     models.TodoSort(sortBy),
				})
				if err != nil {
					return fmt.Errorf("failed to list todos: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(todos) == 0 {
					fmt.Fprintln(out, "No todos found")
					return nil
				}
				now := repo.Clock().Now()
				for _, todo := range todos {
					printTodo(out, todo, now)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(models.FilterAll), "all, completed, pending or overdue")
	cmd.Flags().StringVar(&category, "category", models.CategoryAll, "Category name or all")
	cmd.Flags().StringVar(&sortBy, "sort", string(models.SortCreatedAt), "created_at, due_date or priority")

	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var description, priority, category, dueDate string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return fmt.Errorf("title is required")
			}

			todo := &models.Todo{
				Title:       title,
				Description: description,
				Priority:    priority,
				Category:    category,
			}
			if dueDate != "" {
				due, err := models.ParseDueDate(dueDate)
				if err != nil {
					return err
				}
				todo.DueDate = &due
			}

			return opts.withRepository(cmd, func(repo *database.TodoRepository) error {
				if err := repo.Create(cmd.Context(), todo); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created todo %d\n", todo.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Todo description")
	cmd.Flags().StringVar(&priority, "priority", models.DefaultPriority, "low, medium or high")
	cmd.Flags().StringVar(&category, "category", models.DefaultCategory, "Todo category")
	cmd.Flags().StringVar(&dueDate, "due", "", "Due date (ISO-8601)")

	return cmd
}

func printTodo(out io.Writer, todo *models.Todo, now time.Time) {
	mark := " "
	if todo.Completed {
		mark = "x"
	}
	fmt.Fprintf(out, "[%s] %d %s (%s, %s)", mark, todo.ID, todo.Title, todo.Priority, todo.Category)
	if todo.DueDate != nil {
		fmt.Fprintf(out, " due %s", todo.DueDate.Format(time.RFC3339))
	}
	if todo.IsOverdue(now) {
		fmt.Fprint(out, " OVERDUE")
	}
	fmt.Fprintln(out)
}
