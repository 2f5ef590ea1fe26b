package database

import (
	"context"

	"github.com/benvon/todolist/internal/models"
)

// TodoRepositoryInterface defines the interface for todo repository operations
// This interface enables better testability by allowing mock implementations
type TodoRepositoryInterface interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts ListOptions) ([]*models.Todo, error)
	Count(ctx context.Context, filter models.TodoFilter) (int, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
	Stats(ctx context.Context) (*models.Stats, error)
	BulkUpdate(ctx context.Context, action models.BulkAction) (int64, error)
}

// Ensure concrete types implement the interfaces
var _ TodoRepositoryInterface = (*TodoRepository)(nil)
