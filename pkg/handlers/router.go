package handlers

import (
	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/metrics"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// NewRouter enruta las peticiones del servidor del quiz
func NewRouter(quiz *QuizHandler, health *HealthHandler, metricsHandler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		logger.Log.Debug("📡 Petición", zap.String("method", method), zap.String("path", path))

		ctx.Response.Header.Set("Server", "Quiz-FastHTTP/1.0")
		ctx.Response.Header.Set("Cache-Control", "no-cache")

		// Headers CORS para desarrollo
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")

		if method == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusOK)
			return
		}

		route := path
		switch {
		// Páginas
		case path == "/" && method == fasthttp.MethodGet:
			quiz.Index(ctx)
		case path == "/action" && method == fasthttp.MethodPost:
			quiz.FormAction(ctx)
		case path == "/favicon.ico":
			ctx.SetStatusCode(fasthttp.StatusNotFound)

		// API
		case path == "/api/health":
			health.HealthCheck(ctx)
		case path == "/api/state" && method == fasthttp.MethodGet:
			quiz.State(ctx)
		case path == "/api/actions" && method == fasthttp.MethodPost:
			quiz.Actions(ctx)
		case path == "/metrics":
			metricsHandler(ctx)

		// WebSocket
		case path == "/ws":
			quiz.HandleWebSocket(ctx)

		default:
			route = "other"
			serve404(ctx)
		}

		metrics.ObserveRequest(ctx, route)
	}
}

func serve404(ctx *fasthttp.RequestCtx) {
	respondWithError(ctx, fasthttp.StatusNotFound, "Ruta no encontrada: "+string(ctx.Path()))
}
