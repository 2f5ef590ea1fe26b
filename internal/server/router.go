package server

import (
	"net/http"

	"github.com/benvon/todolist/internal/cache"
	"github.com/benvon/todolist/internal/clock"
	"github.com/benvon/todolist/internal/config"
	"github.com/benvon/todolist/internal/database"
	"github.com/benvon/todolist/internal/handlers"
	"github.com/benvon/todolist/internal/middleware"
	"github.com/benvon/todolist/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Config *config.Config
	DB     *database.DB
	Repo   database.TodoRepositoryInterface
	Clock  clock.Clock
	Logger *zap.Logger

	// Optional
	StatsCache  *cache.StatsCache
	RateLimiter *limiter.Limiter
	Tracing     bool
}

// NewRouter wires routes and middleware into the server's root handler.
//
// Middleware that must see every request, including ones no route matches, wraps
// the router from outside because mux only runs Use middleware on matched routes.
// Outermost first: request id, logging, panic recovery, security headers, CORS,
// rate limiting.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	r := mux.NewRouter()
	r.NotFoundHandler = middleware.NotFound(logger)
	r.MethodNotAllowedHandler = middleware.MethodNotAllowed(logger)

	if deps.Tracing {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
		logger.Info("otel_middleware_enabled")
	}

	handlers.NewHealthChecker(deps.DB, deps.StatsCache).RegisterRoutes(r)
	handlers.NewIndexHandler(cfg.StaticDir).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.ContentType)

	todoHandler := handlers.NewTodoHandler(deps.Repo, deps.Clock,
		handlers.WithStatsCache(deps.StatsCache),
		handlers.WithLogger(logger),
	)
	todoHandler.RegisterRoutes(apiRouter)
	handlers.NewOpenAPIHandler(cfg.OpenAPIPath).RegisterRoutes(apiRouter)

	var h http.Handler = r
	if deps.RateLimiter != nil {
		h = middleware.RateLimit(deps.RateLimiter, logger)(h)
	}
	h = middleware.CORS(cfg.AllowedOrigins(), logger)(h)
	h = middleware.SecurityHeaders(cfg.EnableHSTS)(h)
	h = middleware.ErrorHandler(logger)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)

	return h
}
