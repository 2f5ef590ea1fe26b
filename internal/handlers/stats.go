package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	logpkg "github.com/benvon/todolist/internal/logger"
	"github.com/benvon/todolist/internal/models"
	"github.com/benvon/todolist/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const statsComputeTimeout = 10 * time.Second

// GetStats returns totals, completion counts, the overdue count and per-category
// counts. Concurrent callers share one computation as long as no write lands in
// between.
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	// The shared computation must outlive any single caller's cancellation.
	ctx := context.WithoutCancel(r.Context())

	// A caller never joins a computation that started before a write it observed.
	gen := h.statsGen.Load()
	v, err, _ := h.statsGroup.Do("stats:"+strconv.FormatUint(gen, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, statsComputeTimeout)
		defer cancel()
		return h.loadStats(ctx, gen)
	})
	if err != nil {
		h.logger.Error("failed_to_compute_stats", zap.String("error", logpkg.SanitizeError(err)))
		respondInternalError(w, h.clock.Now(), "Failed to compute stats")
		return
	}

	respondJSON(w, http.StatusOK, v.(*models.Stats))
}

// loadStats serves the counts from the cache when possible. The overdue count
// depends on the current time, so it is always read from the store.
func (h *TodoHandler) loadStats(ctx context.Context, gen uint64) (*models.Stats, error) {
	ctx, span := telemetry.StartSpan(ctx, "stats.compute")
	defer span.End()

	cached, err := h.statsCache.Get(ctx)
	if err != nil {
		h.logger.Warn("failed_to_read_stats_cache", zap.String("error", logpkg.SanitizeError(err)))
	}
	span.SetAttributes(attribute.Bool("stats.cache_hit", cached != nil))
	if cached != nil {
		overdue, err := h.todoRepo.Count(ctx, models.FilterOverdue)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "overdue count failed")
			return nil, err
		}
		cached.Overdue = overdue
		return cached, nil
	}

	stats, err := h.todoRepo.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stats query failed")
		return nil, err
	}

	// Counts read before a concurrent write must not outlive that write's
	// invalidation. Writes bump the generation before deleting the entry, so
	// checking again after Set catches a write that slipped in between.
	if h.statsGen.Load() != gen {
		return stats, nil
	}
	if err := h.statsCache.Set(ctx, stats); err != nil {
		h.logger.Warn("failed_to_cache_stats", zap.String("error", logpkg.SanitizeError(err)))
		return stats, nil
	}
	if h.statsGen.Load() != gen {
		if err := h.statsCache.Invalidate(ctx); err != nil {
			h.logger.Warn("failed_to_invalidate_stats_cache", zap.String("error", logpkg.SanitizeError(err)))
		}
	}
	return stats, nil
}
