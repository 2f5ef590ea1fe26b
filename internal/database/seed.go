package database

import (
	"context"
	"fmt"

	"github.com/benvon/todolist/internal/models"
)

// SampleTodos returns the records inserted into an empty database
func SampleTodos() []*models.Todo {
	return []*models.Todo{
		{
			Title:       "Welcome!",
			Description: "Your todo list is live",
			Priority:    models.PriorityHigh,
			Category:    models.DefaultCategory,
		},
		{
			Title:     "Learn Go",
			Completed: true,
			Priority:  models.DefaultPriority,
			Category:  models.DefaultCategory,
		},
		{
			Title:    "Deploy the service",
			Priority: models.PriorityMedium,
			Category: models.DefaultCategory,
		},
	}
}

// SeedIfEmpty inserts the sample todos when the table has no rows.
// It reports whether anything was inserted.
func (r *TodoRepository) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := r.Count(ctx, models.FilterAll)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for _, todo := range SampleTodos() {
		if err := r.Create(ctx, todo); err != nil {
			return false, fmt.Errorf("failed to seed todo %q: %w", todo.Title, err)
		}
	}
	return true, nil
}
