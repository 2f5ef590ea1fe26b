package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/todolist/internal/cache"
	"github.com/benvon/todolist/internal/database"
	"github.com/gorilla/mux"
)

// pinger is satisfied by *database.DB
type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	db    pinger
	cache *cache.StatsCache
}

// NewHealthChecker creates a new health checker. statsCache may be nil when Redis is
// not configured.
func NewHealthChecker(db *database.DB, statsCache *cache.StatsCache) *HealthChecker {
	h := &HealthChecker{cache: statsCache}
	// A nil *database.DB must not become a non-nil pinger.
	if db != nil {
		h.db = db
	}
	return h
}

// RegisterRoutes registers the health route
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended also checks dependencies.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		if h.db == nil {
			response.Status = "unhealthy"
			checks["database"] = "unhealthy: not configured"
		} else if err := h.check(r.Context(), h.db.PingContext); err != nil {
			response.Status = "unhealthy"
			checks["database"] = "unhealthy: " + sanitizeErrorMessage(err.Error())
		} else {
			checks["database"] = "healthy"
		}

		if h.cache != nil {
			if err := h.check(r.Context(), h.cache.Ping); err != nil {
				response.Status = "unhealthy"
				checks["redis"] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			} else {
				checks["redis"] = "healthy"
			}
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// check runs ping with a bounded timeout
func (h *HealthChecker) check(ctx context.Context, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ping(ctx)
}
