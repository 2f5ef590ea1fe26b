package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/todolist/internal/clock"
	"github.com/benvon/todolist/internal/database"
	"github.com/benvon/todolist/internal/models"
	"github.com/gorilla/mux"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type todoJSON struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	Category    string  `json:"category"`
	DueDate     *string `json:"due_date"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	IsOverdue   bool    `json:"is_overdue"`
}

type testServer struct {
	router *mux.Router
	repo   *database.TodoRepository
	clock  *clock.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	clk := clock.NewMock(testNow)
	repo := database.NewTodoRepository(db, clk)
	return &testServer{router: newAPIRouter(NewTodoHandler(repo, clk)), repo: repo, clock: clk}
}

func newAPIRouter(h *TodoHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api").Subrouter())
	return r
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T, body string) todoJSON {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/todos", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed with %d: %s", w.Code, w.Body.String())
	}
	return decodeTodo(t, w)
}

func decodeTodo(t *testing.T, w *httptest.ResponseRecorder) todoJSON {
	t.Helper()

	var todo todoJSON
	if err := json.NewDecoder(w.Body).Decode(&todo); err != nil {
		t.Fatalf("Failed to decode todo: %v", err)
	}
	return todo
}

func decodeTodos(t *testing.T, w *httptest.ResponseRecorder) []todoJSON {
	t.Helper()

	var todos []todoJSON
	if err := json.NewDecoder(w.Body).Decode(&todos); err != nil {
		t.Fatalf("Failed to decode todo list: %v", err)
	}
	return todos
}

func TestCreateTodo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		validate   func(*testing.T, todoJSON)
	}{
		{
			name:       "defaults",
			body:       `{"title":"Buy milk"}`,
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.ID == 0 {
					t.Error("Expected id to be assigned")
				}
				if todo.Priority != "medium" || todo.Category != "general" || todo.Description != "" {
					t.Errorf("Expected defaults, got %+v", todo)
				}
				if todo.Completed || todo.IsOverdue {
					t.Errorf("Expected pending, not overdue, got %+v", todo)
				}
				if todo.DueDate != nil {
					t.Errorf("Expected null due_date, got %v", *todo.DueDate)
				}
				if todo.CreatedAt != "2025-06-15T12:00:00Z" || todo.CreatedAt != todo.UpdatedAt {
					t.Errorf("Unexpected timestamps created=%s updated=%s", todo.CreatedAt, todo.UpdatedAt)
				}
			},
		},
		{
			name:       "all fields",
			body:       `{"title":"Report","description":"Q3","priority":"high","category":"work","due_date":"2025-06-20T09:00:00Z"}`,
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.Description != "Q3" || todo.Priority != "high" || todo.Category != "work" {
					t.Errorf("Unexpected fields %+v", todo)
				}
				if todo.DueDate == nil || *todo.DueDate != "2025-06-20T09:00:00Z" {
					t.Errorf("Unexpected due_date %v", todo.DueDate)
				}
			},
		},
		{
			name:       "past due date is overdue",
			body:       `{"title":"Late","due_date":"2025-06-01"}`,
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, todo todoJSON) {
				if !todo.IsOverdue {
					t.Error("Expected is_overdue true")
				}
			},
		},
		{
			name:       "unknown priority accepted",
			body:       `{"title":"Odd","priority":"urgent"}`,
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.Priority != "urgent" {
					t.Errorf("Expected priority stored as given, got %q", todo.Priority)
				}
			},
		},
		{
			name:       "empty due date ignored",
			body:       `{"title":"No date","due_date":""}`,
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.DueDate != nil {
					t.Errorf("Expected null due_date, got %v", *todo.DueDate)
				}
			},
		},
		{"missing title", `{"description":"x"}`, http.StatusBadRequest, nil},
		{"empty title", `{"title":""}`, http.StatusBadRequest, nil},
		{"title too long", `{"title":"` + strings.Repeat("t", 201) + `"}`, http.StatusBadRequest, nil},
		{"category too long", `{"title":"x","category":"` + strings.Repeat("c", 51) + `"}`, http.StatusBadRequest, nil},
		{"malformed due date", `{"title":"x","due_date":"next week"}`, http.StatusBadRequest, nil},
		{"malformed json", `{"title":`, http.StatusBadRequest, nil},
		{"wrong type", `{"title":42}`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/todos", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.validate != nil {
				tt.validate(t, decodeTodo(t, w))
			}
		})
	}
}

func TestGetTodo(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	created := s.create(t, `{"title":"Find me"}`)

	w := s.do(t, http.MethodGet, "/api/todos/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decodeTodo(t, w); got.ID != created.ID || got.Title != "Find me" {
		t.Errorf("Unexpected todo %+v", got)
	}

	if w := s.do(t, http.MethodGet, "/api/todos/999", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing todo, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/todos/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestUpdateTodo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		validate   func(*testing.T, todoJSON)
	}{
		{
			name:       "partial update",
			body:       `{"completed":true}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if !todo.Completed || todo.Title != "Original" || todo.Priority != "high" {
					t.Errorf("Expected only completed to change, got %+v", todo)
				}
				if todo.IsOverdue {
					t.Error("Completed todo must not be overdue")
				}
			},
		},
		{
			name:       "null due date clears",
			body:       `{"due_date":null}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.DueDate != nil {
					t.Errorf("Expected due_date cleared, got %v", *todo.DueDate)
				}
			},
		},
		{
			name:       "empty due date clears",
			body:       `{"due_date":""}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.DueDate != nil {
					t.Errorf("Expected due_date cleared, got %v", *todo.DueDate)
				}
			},
		},
		{
			name:       "new due date",
			body:       `{"due_date":"2025-07-01T10:00:00+02:00"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.DueDate == nil || *todo.DueDate != "2025-07-01T08:00:00Z" {
					t.Errorf("Unexpected due_date %v", todo.DueDate)
				}
				if todo.IsOverdue {
					t.Error("Future due date must not be overdue")
				}
			},
		},
		{
			name:       "absent due date kept",
			body:       `{"title":"Renamed"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.Title != "Renamed" {
					t.Errorf("Expected title 'Renamed', got %q", todo.Title)
				}
				if todo.DueDate == nil || !todo.IsOverdue {
					t.Errorf("Expected due date kept and overdue, got %+v", todo)
				}
			},
		},
		{
			name:       "null description resets",
			body:       `{"description":null}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.Description != "" {
					t.Errorf("Expected empty description, got %q", todo.Description)
				}
			},
		},
		{
			name:       "updated_at refreshed",
			body:       `{}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, todo todoJSON) {
				if todo.UpdatedAt != "2025-06-15T12:05:00Z" || todo.CreatedAt != "2025-06-15T12:00:00Z" {
					t.Errorf("Unexpected timestamps created=%s updated=%s", todo.CreatedAt, todo.UpdatedAt)
				}
			},
		},
		{"null title", `{"title":null}`, http.StatusBadRequest, nil},
		{"empty title", `{"title":""}`, http.StatusBadRequest, nil},
		{"null completed", `{"completed":null}`, http.StatusBadRequest, nil},
		{"null priority", `{"priority":null}`, http.StatusBadRequest, nil},
		{"null category", `{"category":null}`, http.StatusBadRequest, nil},
		{"malformed due date", `{"due_date":"31/12/2025"}`, http.StatusBadRequest, nil},
		{"malformed json", `[`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			s.create(t, `{"title":"Original","description":"notes","priority":"high","due_date":"2025-06-10"}`)
			s.clock.Advance(5 * time.Minute)

			w := s.do(t, http.MethodPut, "/api/todos/1", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.validate != nil {
				tt.validate(t, decodeTodo(t, w))
			}
		})
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	if w := s.do(t, http.MethodPut, "/api/todos/5", `{"title":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestDeleteTodo(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.create(t, `{"title":"Doomed"}`)

	w := s.do(t, http.MethodDelete, "/api/todos/1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}
	if w := s.do(t, http.MethodDelete, "/api/todos/1", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/todos/1", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestListTodos(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/todos", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("Expected empty array, got %d %s", w.Code, w.Body.String())
	}

	s.create(t, `{"title":"A","priority":"low","category":"home"}`)
	s.clock.Advance(time.Second)
	s.create(t, `{"title":"B","priority":"high","category":"work","due_date":"2025-06-01"}`)
	s.clock.Advance(time.Second)
	s.create(t, `{"title":"C","category":"work"}`)
	s.do(t, http.MethodPut, "/api/todos/3", `{"completed":true}`)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"C", "B", "A"}},
		{"?filter=pending", []string{"B", "A"}},
		{"?filter=completed", []string{"C"}},
		{"?filter=overdue", []string{"B"}},
		{"?category=work", []string{"C", "B"}},
		{"?category=all&filter=all", []string{"C", "B", "A"}},
		{"?sort=priority", []string{"B", "C", "A"}},
		{"?sort=due_date", []string{"B", "A", "C"}},
		{"?filter=bogus&sort=bogus", []string{"C", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/todos"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			todos := decodeTodos(t, w)
			got := make([]string, 0, len(todos))
			for _, todo := range todos {
				got = append(got, todo.Title)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("GET /api/todos%s = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestBulkAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		validate   func(*testing.T, *testServer)
	}{
		{
			name:       "set priority skips missing ids",
			body:       `{"action":"set_priority","todo_ids":[1,2,999],"priority":"low"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, s *testServer) {
				for _, id := range []int64{1, 2} {
					todo, err := s.repo.GetByID(context.Background(), id)
					if err != nil {
						t.Fatalf("GetByID(%d) error = %v", id, err)
					}
					if todo.Priority != "low" {
						t.Errorf("Expected todo %d low priority, got %q", id, todo.Priority)
					}
				}
			},
		},
		{
			name:       "complete",
			body:       `{"action":"complete","todo_ids":[2]}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, s *testServer) {
				n, _ := s.repo.Count(context.Background(), models.FilterCompleted)
				if n != 1 {
					t.Errorf("Expected 1 completed todo, got %d", n)
				}
			},
		},
		{
			name:       "delete",
			body:       `{"action":"delete","todo_ids":[1,2]}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, s *testServer) {
				n, _ := s.repo.Count(context.Background(), models.FilterAll)
				if n != 0 {
					t.Errorf("Expected no todos left, got %d", n)
				}
			},
		},
		{"empty ids", `{"action":"complete","todo_ids":[]}`, http.StatusOK, nil},
		{"missing ids", `{"action":"delete"}`, http.StatusOK, nil},
		{"unknown action", `{"action":"archive","todo_ids":[1]}`, http.StatusBadRequest, nil},
		{"missing action", `{"todo_ids":[1]}`, http.StatusBadRequest, nil},
		{"set priority without priority", `{"action":"set_priority","todo_ids":[1]}`, http.StatusBadRequest, nil},
		{"non-numeric ids", `{"action":"complete","todo_ids":["a"]}`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			s.create(t, `{"title":"one","priority":"high"}`)
			s.create(t, `{"title":"two","priority":"high"}`)

			w := s.do(t, http.MethodPost, "/api/todos/bulk", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if got := strings.TrimSpace(w.Body.String()); got != `{"success":true}` {
					t.Errorf("Expected success body, got %s", got)
				}
			}
			if tt.validate != nil {
				tt.validate(t, s)
			}
		})
	}
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/stats", "")
	if got := strings.TrimSpace(w.Body.String()); got != `{"total":0,"completed":0,"pending":0,"overdue":0,"categories":{}}` {
		t.Errorf("Unexpected empty stats %s", got)
	}

	s.create(t, `{"title":"a","category":"work","due_date":"2025-06-01"}`)
	s.create(t, `{"title":"b","category":"work"}`)
	s.create(t, `{"title":"c"}`)
	s.do(t, http.MethodPut, "/api/todos/2", `{"completed":true}`)

	w = s.do(t, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var stats models.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 || stats.Overdue != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Categories["work"] != 2 || stats.Categories["general"] != 1 {
		t.Errorf("Unexpected categories %v", stats.Categories)
	}
}

func TestErrorResponsesUseHandlerClock(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.clock.Advance(90 * time.Minute)

	for _, path := range []string{"/api/todos/99", "/api/todos/abc"} {
		w := s.do(t, http.MethodGet, path, "")
		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode error body for %s: %v", path, err)
		}
		if body["timestamp"] != "2025-06-15T13:30:00Z" {
			t.Errorf("Expected %s error stamped with the handler clock, got %v", path, body["timestamp"])
		}
	}
}

// failingRepo fails every call with err
type failingRepo struct {
	err error
}

func (f failingRepo) Create(context.Context, *models.Todo) error { return f.err }
func (f failingRepo) GetByID(context.Context, int64) (*models.Todo, error) {
	return nil, f.err
}
func (f failingRepo) Update(context.Context, int64, models.TodoPatch) (*models.Todo, error) {
	return nil, f.err
}
func (f failingRepo) Delete(context.Context, int64) error { return f.err }
func (f failingRepo) List(context.Context, database.ListOptions) ([]*models.Todo, error) {
	return nil, f.err
}
func (f failingRepo) Count(context.Context, models.TodoFilter) (int, error) { return 0, f.err }
func (f failingRepo) CountByCategory(context.Context) (map[string]int, error) {
	return nil, f.err
}
func (f failingRepo) Stats(context.Context) (*models.Stats, error) { return nil, f.err }
func (f failingRepo) BulkUpdate(context.Context, models.BulkAction) (int64, error) {
	return 0, f.err
}

func TestTodoHandler_StoreFailures(t *testing.T) {
	t.Parallel()

	h := NewTodoHandler(failingRepo{err: errors.New("disk I/O error")}, clock.NewMock(testNow))
	router := newAPIRouter(h)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/todos", ""},
		{http.MethodPost, "/api/todos", `{"title":"x"}`},
		{http.MethodGet, "/api/todos/1", ""},
		{http.MethodPut, "/api/todos/1", `{"title":"x"}`},
		{http.MethodDelete, "/api/todos/1", ""},
		{http.MethodGet, "/api/stats", ""},
		{http.MethodPost, "/api/todos/bulk", `{"action":"complete","todo_ids":[1]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("Expected 500, got %d", w.Code)
			}
			if strings.Contains(w.Body.String(), "disk I/O") {
				t.Error("Expected store error detail to stay server-side")
			}
		})
	}
}
