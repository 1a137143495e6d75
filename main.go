package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backsoul/quizcatalog/pkg/app"
	"github.com/backsoul/quizcatalog/pkg/config"
	"github.com/backsoul/quizcatalog/pkg/handlers"
	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/metrics"
	"github.com/backsoul/quizcatalog/pkg/view"
	"github.com/backsoul/quizcatalog/pkg/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	cfg           *config.Config
	core          *app.Core
	hub           *websocket.Hub
	quizHandler   *handlers.QuizHandler
	healthHandler *handlers.HealthHandler
)

func main() {
	configPath := flag.String("config", "./configs", "directorio de config.yaml")
	flag.Parse()

	var err error
	cfg, err = config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error cargando configuración: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Error inicializando logger: %v", err)
	}
	defer logger.Sync()

	logger.Log.Info("🚀 Iniciando servidor del quiz")
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inicializar servicios
	initServices(ctx)
	defer core.Close()

	server := &fasthttp.Server{
		Handler: handlers.NewRouter(quizHandler, healthHandler, metrics.Handler()),
		Name:    cfg.Server.Name,
	}

	logger.Log.Info("🎮 Servidor del quiz iniciado",
		zap.String("addr", cfg.Server.Addr),
		zap.String("catalog", cfg.Catalog.URL),
		zap.String("cache", core.CacheTag))
	logger.Log.Info("📱 Quiz: GET /  🔧 API: /api/state, /api/actions, /api/health  📊 /metrics")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Fatal("Error al iniciar el servidor", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Log.Info("🔄 Deteniendo servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Log.Warn("Error deteniendo el servidor", zap.Error(err))
		}
	}
}

func initServices(ctx context.Context) {
	logger.Log.Info("⚙️  Inicializando servicios...")
	core = app.New(ctx, cfg)

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Log.Fatal("Error cargando plantillas", zap.Error(err))
	}

	// Inicializar WebSocket Hub
	hub = websocket.NewHub()
	go hub.Run(ctx)

	// Inicializar handlers
	quizHandler = handlers.NewQuizHandler(core.Sessions, renderer, hub, cfg.Viewport.Breakpoint)
	healthHandler = handlers.NewHealthHandler(core.Cache, core.CacheTag, core.Sessions, hub)
	core.Sessions.SetNotifier(quizHandler)
}
