package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/todolist/internal/clock"
	"github.com/benvon/todolist/internal/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const todoColumns = "id, title, description, completed, priority, category, due_date, created_at, updated_at"

// ListOptions narrows and orders a todo list
type ListOptions struct {
	Filter   models.TodoFilter
	Category string
	Sort     models.TodoSort
}

// TodoRepository handles todo database operations
type TodoRepository struct {
	db    *DB
	clock clock.Clock
	log   *zap.Logger
}

// NewTodoRepository creates a new todo repository. A nil clock means the system clock.
func NewTodoRepository(db *DB, clk clock.Clock) *TodoRepository {
	if clk == nil {
		clk = clock.System()
	}
	return &TodoRepository{db: db, clock: clk, log: zap.NewNop()}
}

// SetLogger sets the logger used for repository diagnostics
func (r *TodoRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.log = logger
	}
}

// Clock returns the clock used to stamp and evaluate todos
func (r *TodoRepository) Clock() clock.Clock {
	return r.clock
}

// Create inserts a new todo, assigning its id and timestamps
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	now := r.clock.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	todo.DueDate = utcPtr(todo.DueDate)

	query := r.db.Rebind(`
		INSERT INTO todos (title, description, completed, priority, category, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowxContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.Priority,
		todo.Category,
		todo.DueDate,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetByID retrieves a todo by ID
func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *TodoRepository) getByID(ctx context.Context, q sqlx.QueryerContext, id int64, forUpdate bool) (*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE id = ?"
	if forUpdate && r.db.driver == DriverPostgres {
		query += " FOR UPDATE"
	}

	todo := &models.Todo{}
	err := sqlx.GetContext(ctx, q, todo, r.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	normalize(todo)
	return todo, nil
}

// Update applies patch to the todo inside a single transaction and refreshes updated_at
func (r *TodoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	todo, err := r.getByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	patch.Apply(todo)
	todo.UpdatedAt = r.clock.Now()

	query := r.db.Rebind(`
		UPDATE todos
		SET title = ?, description = ?, completed = ?, priority = ?, category = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := tx.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.Priority,
		todo.Category,
		todo.DueDate,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrTodoNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit todo update: %w", err)
	}

	return todo, nil
}

// Delete deletes a todo by ID
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// List returns todos matching opts. Unknown filters select everything and unknown
// sorts fall back to newest first.
func (r *TodoRepository) List(ctx context.Context, opts ListOptions) ([]*models.Todo, error) {
	conditions, args := filterConditions(opts.Filter, r.clock.Now())

	if opts.Category != "" && opts.Category != models.CategoryAll {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}

	query := "SELECT " + todoColumns + " FROM todos"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch opts.Sort {
	case models.SortDueDate:
		query += " ORDER BY due_date IS NULL, due_date ASC, id ASC"
	case models.SortPriority:
		// Ranked in Go below; id order is the stable base.
		query += " ORDER BY id ASC"
	default:
		query += " ORDER BY created_at DESC, id DESC"
	}

	var todos []*models.Todo
	if err := r.db.SelectContext(ctx, &todos, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}

	for _, todo := range todos {
		normalize(todo)
	}

	if opts.Sort == models.SortPriority {
		sort.SliceStable(todos, func(i, j int) bool {
			return models.PriorityRank(todos[i].Priority) < models.PriorityRank(todos[j].Priority)
		})
	}

	return todos, nil
}

// Count returns the number of todos matching filter
func (r *TodoRepository) Count(ctx context.Context, filter models.TodoFilter) (int, error) {
	conditions, args := filterConditions(filter, r.clock.Now())

	query := "SELECT COUNT(*) FROM todos"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return count, nil
}

// CountByCategory returns the number of todos per category
func (r *TodoRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Category string `db:"category"`
		Total    int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT category, COUNT(*) AS total FROM todos GROUP BY category`); err != nil {
		return nil, fmt.Errorf("failed to count todos by category: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}
	return counts, nil
}

// Stats computes the aggregate counters served by /api/stats
func (r *TodoRepository) Stats(ctx context.Context) (*models.Stats, error) {
	query := r.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN NOT completed AND due_date IS NOT NULL AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue
		FROM todos
	`)

	var counters struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
		Overdue   int `db:"overdue"`
	}
	if err := r.db.GetContext(ctx, &counters, query, r.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to compute todo stats: %w", err)
	}

	categories, err := r.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Stats{
		Total:      counters.Total,
		Completed:  counters.Completed,
		Pending:    counters.Total - counters.Completed,
		Overdue:    counters.Overdue,
		Categories: categories,
	}, nil
}

// BulkUpdate applies action to every listed todo in one transaction. Ids that do
// not exist are skipped. It returns the number of rows changed.
func (r *TodoRepository) BulkUpdate(ctx context.Context, action models.BulkAction) (int64, error) {
	var (
		query string
		args  []any
	)
	now := r.clock.Now()

	switch action.Action {
	case models.BulkComplete:
		query, args = `UPDATE todos SET completed = ?, updated_at = ? WHERE id IN (?)`, []any{true, now}
	case models.BulkSetPriority:
		query, args = `UPDATE todos SET priority = ?, updated_at = ? WHERE id IN (?)`, []any{action.Priority, now}
	case models.BulkDelete:
		query = `DELETE FROM todos WHERE id IN (?)`
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidBulkAction, action.Action)
	}

	if len(action.IDs) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(query, append(args, action.IDs)...)
	if err != nil {
		return 0, fmt.Errorf("failed to expand bulk ids: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to apply bulk %s: %w", action.Action, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk %s: %w", action.Action, err)
	}

	r.log.Debug("bulk_action_applied",
		zap.String("action", string(action.Action)),
		zap.Int("requested", len(action.IDs)),
		zap.Int64("affected", affected),
	)

	return affected, nil
}

// filterConditions translates a filter into WHERE clauses evaluated at now
func filterConditions(filter models.TodoFilter, now time.Time) ([]string, []any) {
	switch filter {
	case models.FilterCompleted:
		return []string{"completed = ?"}, []any{true}
	case models.FilterPending:
		return []string{"completed = ?"}, []any{false}
	case models.FilterOverdue:
		return []string{"completed = ?", "due_date IS NOT NULL", "due_date < ?"}, []any{false, now}
	default:
		return nil, nil
	}
}

// normalize converts scanned timestamps to UTC; lib/pq returns the session time zone.
func normalize(todo *models.Todo) {
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	todo.DueDate = utcPtr(todo.DueDate)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
