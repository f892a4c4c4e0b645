package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/property-assistant/internal/api/response"
	"github.com/Rrens/property-assistant/internal/llm"
)

// Pinger is any dependency whose connectivity gates readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck reports ready only when every dependency answers a ping
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(deps))
		ready := true
		for name, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}

		if !ready {
			response.Error(w, http.StatusServiceUnavailable, map[string]any{
				"message":      "dependencies not ready",
				"dependencies": status,
			})
			return
		}

		response.OK(w, map[string]any{
			"status":       "ready",
			"dependencies": status,
		})
	}
}

// ListLLMProviders returns the registered language-model providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers":        router.GetProvidersInfo(),
			"default_provider": router.DefaultProvider(),
		})
	}
}

// CacheFlusher drops every cached property context
type CacheFlusher interface {
	FlushAll(ctx context.Context) (int64, error)
}

// FlushCache clears all property contexts from the cache
func FlushCache(cache CacheFlusher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.FlushAll(r.Context())
		if err != nil {
			response.InternalError(w, "failed to flush cache")
			return
		}

		response.OK(w, map[string]any{
			"message":      "cache flushed successfully",
			"keys_deleted": deleted,
		})
	}
}
