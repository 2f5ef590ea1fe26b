package middleware

import (
	"net/http"

	"github.com/benvon/todolist/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// defaultCORSOrigin is allowed when no frontend origin is configured
const defaultCORSOrigin = "http://localhost:3000"

// CORS wraps rs/cors. Preflight requests are answered here, before routing.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{defaultCORSOrigin}
	}
	if logger != nil {
		logger.Info("cors_configured", zap.Strings("allowed_origins", allowedOrigins))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", request.RequestIDHeader},
		ExposedHeaders: []string{request.RequestIDHeader},
		MaxAge:         86400,
	})
	return c.Handler
}
