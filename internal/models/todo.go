package models

import (
	"time"
)

// Priority values recognized by the priority sort. Other values are stored as given.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

const (
	// DefaultPriority is applied when a todo is created without a priority
	DefaultPriority = PriorityMedium
	// DefaultCategory is applied when a todo is created without a category
	DefaultCategory = "general"
	// MaxTitleLength is the column width of todos.title
	MaxTitleLength = 200
	// MaxCategoryLength is the column width of todos.category
	MaxCategoryLength = 50
)

// TodoFilter selects a subset of todos by completion state
type TodoFilter string

const (
	FilterAll       TodoFilter = "all"
	FilterCompleted TodoFilter = "completed"
	FilterPending   TodoFilter = "pending"
	FilterOverdue   TodoFilter = "overdue"
)

// TodoSort selects the ordering of a todo list
type TodoSort string

const (
	SortCreatedAt TodoSort = "created_at"
	SortDueDate   TodoSort = "due_date"
	SortPriority  TodoSort = "priority"
)

// CategoryAll disables category narrowing in list queries
const CategoryAll = "all"

// Todo represents a todo item
type Todo struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    string     `json:"priority" db:"priority"`
	Category    string     `json:"category" db:"category"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the todo has a due date before now and is not completed.
func (t *Todo) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return t.DueDate.Before(now)
}

// TodoResponse is the wire representation of a todo, including derived fields
type TodoResponse struct {
	*Todo
	IsOverdue bool `json:"is_overdue"`
}

// NewTodoResponse evaluates derived fields of t at now
func NewTodoResponse(t *Todo, now time.Time) TodoResponse {
	return TodoResponse{Todo: t, IsOverdue: t.IsOverdue(now)}
}

// NewTodoResponses converts a list, never returning nil so it encodes as [].
func NewTodoResponses(todos []*Todo, now time.Time) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, NewTodoResponse(t, now))
	}
	return out
}

// PriorityRank orders priorities for sorting: high, medium, low, then anything else.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Stats is the aggregate view served by /api/stats
type Stats struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	Overdue    int            `json:"overdue"`
	Categories map[string]int `json:"categories"`
}

// BulkActionType names the mutation applied by a bulk request
type BulkActionType string

const (
	BulkComplete    BulkActionType = "complete"
	BulkDelete      BulkActionType = "delete"
	BulkSetPriority BulkActionType = "set_priority"
)

// BulkAction applies one mutation to every todo in IDs. Missing ids are skipped.
type BulkAction struct {
	Action   BulkActionType
	IDs      []int64
	Priority string
}
