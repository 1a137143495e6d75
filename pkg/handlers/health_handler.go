package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/backsoul/quizcatalog/pkg/services"
	websocketHub "github.com/backsoul/quizcatalog/pkg/websocket"
	"github.com/valyala/fasthttp"
)

// HealthChecker dependencia cuya salud se reporta
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	cache    HealthChecker
	cacheTag string
	sessions *services.SessionService
	hub      *websocketHub.Hub
}

// NewHealthHandler cacheTag identifica el backend de caché en la respuesta ("redis", "memory")
func NewHealthHandler(cache HealthChecker, cacheTag string, sessions *services.SessionService, hub *websocketHub.Hub) *HealthHandler {
	return &HealthHandler{cache: cache, cacheTag: cacheTag, sessions: sessions, hub: hub}
}

// HealthCheck maneja GET /api/health
func (h *HealthHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.cache.HealthCheck(checkCtx); err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]interface{}{
		"status":     "healthy",
		"cache":      h.cacheTag,
		"sessions":   h.sessions.Count(),
		"websockets": h.hub.Count(),
	}, "Servicio funcionando correctamente")
}
