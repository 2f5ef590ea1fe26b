package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/benvon/todolist/internal/cache"
	"github.com/benvon/todolist/internal/clock"
	"github.com/benvon/todolist/internal/database"
	logpkg "github.com/benvon/todolist/internal/logger"
	"github.com/benvon/todolist/internal/models"
	"github.com/benvon/todolist/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TodoHandler handles todo and stats requests
type TodoHandler struct {
	todoRepo   database.TodoRepositoryInterface
	clock      clock.Clock
	statsCache *cache.StatsCache
	logger     *zap.Logger
	statsGroup singleflight.Group
	// statsGen counts writes; stats computations are keyed on it
	statsGen atomic.Uint64
}

// TodoHandlerOption configures optional TodoHandler collaborators
type TodoHandlerOption func(*TodoHandler)

// WithStatsCache serves /api/stats through c and invalidates it on every write
func WithStatsCache(c *cache.StatsCache) TodoHandlerOption {
	return func(h *TodoHandler) {
		h.statsCache = c
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *zap.Logger) TodoHandlerOption {
	return func(h *TodoHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewTodoHandler creates a new todo handler. clk must be the clock the repository
// stamps records with so is_overdue agrees with the overdue filter.
func NewTodoHandler(todoRepo database.TodoRepositoryInterface, clk clock.Clock, opts ...TodoHandlerOption) *TodoHandler {
	if clk == nil {
		clk = clock.System()
	}
	h := &TodoHandler{
		todoRepo: todoRepo,
		clock:    clk,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers todo and stats routes on the /api router
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/todos", h.ListTodos).Methods(http.MethodGet)
	r.HandleFunc("/todos", h.CreateTodo).Methods(http.MethodPost)
	r.HandleFunc("/todos/bulk", h.BulkAction).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id}", h.GetTodo).Methods(http.MethodGet)
	r.HandleFunc("/todos/{id}", h.UpdateTodo).Methods(http.MethodPut)
	r.HandleFunc("/todos/{id}", h.DeleteTodo).Methods(http.MethodDelete)
	r.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
}

// CreateTodoRequest represents a create todo request. Optional fields left out or
// null take their defaults.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	DueDate     *string `json:"due_date"`
}

// UpdateTodoRequest represents an update todo request. Keys left out keep the
// stored value; due_date null or "" clears the due date.
type UpdateTodoRequest struct {
	Title       models.Optional[string] `json:"title"`
	Description models.Optional[string] `json:"description"`
	Completed   models.Optional[bool]   `json:"completed"`
	Priority    models.Optional[string] `json:"priority"`
	Category    models.Optional[string] `json:"category"`
	DueDate     models.Optional[string] `json:"due_date"`
}

// BulkActionRequest represents a bulk action request
type BulkActionRequest struct {
	Action   string  `json:"action" validate:"required,bulk_action"`
	TodoIDs  []int64 `json:"todo_ids"`
	Priority string  `json:"priority" validate:"required_if=Action set_priority"`
}

// ListTodos lists todos narrowed by the filter and category query parameters and
// ordered by sort
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := database.ListOptions{
		Filter:   models.TodoFilter(q.Get("filter")),
		Category: q.Get("category"),
		Sort:     models.TodoSort(q.Get("sort")),
	}

	todos, err := h.todoRepo.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed_to_list_todos",
			zap.String("filter", string(opts.Filter)),
			zap.String("sort", string(opts.Sort)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondInternalError(w, h.clock.Now(), "Failed to retrieve todos")
		return
	}

	respondJSON(w, http.StatusOK, models.NewTodoResponses(todos, h.clock.Now()))
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.clock.Now(), "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondBadRequest(w, h.clock.Now(), fmt.Sprintf("Validation failed: %s", validation.FormatValidationError(err)))
		return
	}

	todo := &models.Todo{
		Title:    req.Title,
		Priority: models.DefaultPriority,
		Category: models.DefaultCategory,
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.Category != nil {
		todo.Category = *req.Category
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := models.ParseDueDate(*req.DueDate)
		if err != nil {
			respondBadRequest(w, h.clock.Now(), err.Error())
			return
		}
		todo.DueDate = &due
	}

	if err := h.todoRepo.Create(r.Context(), todo); err != nil {
		h.logger.Error("failed_to_create_todo", zap.String("error", logpkg.SanitizeError(err)))
		respondInternalError(w, h.clock.Now(), "Failed to create todo")
		return
	}

	h.invalidateStats(r)
	h.logger.Debug("todo_created", zap.Int64("todo_id", todo.ID))

	respondJSON(w, http.StatusCreated, models.NewTodoResponse(todo, h.clock.Now()))
}

// GetTodo returns a single todo
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseTodoID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoRepo.GetByID(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, err, "failed_to_get_todo", id, "Failed to retrieve todo")
		return
	}

	respondJSON(w, http.StatusOK, models.NewTodoResponse(todo, h.clock.Now()))
}

// UpdateTodo applies the fields present in the body to a todo
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseTodoID(w, r)
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.clock.Now(), "Invalid request body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		respondBadRequest(w, h.clock.Now(), err.Error())
		return
	}

	todo, err := h.todoRepo.Update(r.Context(), id, patch)
	if err != nil {
		h.respondRepoError(w, err, "failed_to_update_todo", id, "Failed to update todo")
		return
	}

	h.invalidateStats(r)
	h.logger.Debug("todo_updated", zap.Int64("todo_id", id))

	respondJSON(w, http.StatusOK, models.NewTodoResponse(todo, h.clock.Now()))
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseTodoID(w, r)
	if !ok {
		return
	}

	if err := h.todoRepo.Delete(r.Context(), id); err != nil {
		h.respondRepoError(w, err, "failed_to_delete_todo", id, "Failed to delete todo")
		return
	}

	h.invalidateStats(r)
	h.logger.Debug("todo_deleted", zap.Int64("todo_id", id))

	w.WriteHeader(http.StatusNoContent)
}

// BulkAction completes, deletes or reprioritizes the listed todos. Ids that do not
// exist are skipped.
func (h *TodoHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req BulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.clock.Now(), "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondBadRequest(w, h.clock.Now(), fmt.Sprintf("Validation failed: %s", validation.FormatValidationError(err)))
		return
	}

	action := models.BulkAction{
		Action:   models.BulkActionType(req.Action),
		IDs:      req.TodoIDs,
		Priority: req.Priority,
	}
	affected, err := h.todoRepo.BulkUpdate(r.Context(), action)
	if err != nil {
		if errors.Is(err, database.ErrInvalidBulkAction) {
			respondBadRequest(w, h.clock.Now(), err.Error())
			return
		}
		h.logger.Error("failed_to_apply_bulk_action",
			zap.String("action", req.Action),
			zap.Int("requested", len(req.TodoIDs)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondInternalError(w, h.clock.Now(), "Failed to apply bulk action")
		return
	}

	if affected > 0 {
		h.invalidateStats(r)
	}
	h.logger.Debug("bulk_action_completed",
		zap.String("action", req.Action),
		zap.Int64("affected", affected),
	)

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// toPatch converts the request into a repository patch. Fields that cannot be
// cleared reject null.
func (req UpdateTodoRequest) toPatch() (models.TodoPatch, error) {
	patch := models.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Priority:    req.Priority,
		Category:    req.Category,
	}

	switch {
	case req.Title.Set && req.Title.Null:
		return patch, errors.New("title must not be null")
	case req.Completed.Set && req.Completed.Null:
		return patch, errors.New("completed must not be null")
	case req.Priority.Set && req.Priority.Null:
		return patch, errors.New("priority must not be null")
	case req.Category.Set && req.Category.Null:
		return patch, errors.New("category must not be null")
	}

	if req.Title.Set {
		if req.Title.Value == "" {
			return patch, errors.New("title is required")
		}
		if utf8.RuneCountInString(req.Title.Value) > models.MaxTitleLength {
			return patch, fmt.Errorf("title must be at most %d characters", models.MaxTitleLength)
		}
	}
	if req.Category.Set && utf8.RuneCountInString(req.Category.Value) > models.MaxCategoryLength {
		return patch, fmt.Errorf("category must be at most %d characters", models.MaxCategoryLength)
	}

	if req.DueDate.Set {
		if req.DueDate.Null || req.DueDate.Value == "" {
			patch.DueDate = models.Null[time.Time]()
		} else {
			due, err := models.ParseDueDate(req.DueDate.Value)
			if err != nil {
				return patch, err
			}
			patch.DueDate = models.Some(due)
		}
	}

	return patch, nil
}

// parseTodoID reads the {id} path variable, answering 400 when it is not an integer
func (h *TodoHandler) parseTodoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondBadRequest(w, h.clock.Now(), "Invalid todo ID")
		return 0, false
	}
	return id, true
}

// respondRepoError maps repository errors to responses, logging unexpected ones
func (h *TodoHandler) respondRepoError(w http.ResponseWriter, err error, event string, id int64, message string) {
	if errors.Is(err, database.ErrTodoNotFound) {
		respondNotFound(w, h.clock.Now(), "Todo not found")
		return
	}
	h.logger.Error(event,
		zap.Int64("todo_id", id),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	respondInternalError(w, h.clock.Now(), message)
}

// invalidateStats marks a committed write and drops cached stats. Failures to reach
// Redis only delay freshness until the cache entry expires.
func (h *TodoHandler) invalidateStats(r *http.Request) {
	h.statsGen.Add(1)
	if err := h.statsCache.Invalidate(r.Context()); err != nil {
		h.logger.Warn("failed_to_invalidate_stats_cache", zap.String("error", logpkg.SanitizeError(err)))
	}
}
