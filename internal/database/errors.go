package database

import "errors"

var (
	// ErrTodoNotFound is returned when no todo has the requested id
	ErrTodoNotFound = errors.New("todo not found")
	// ErrInvalidBulkAction is returned for bulk actions other than complete, delete and set_priority
	ErrInvalidBulkAction = errors.New("invalid bulk action")
)
