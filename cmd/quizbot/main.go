package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/backsoul/quizcatalog/pkg/app"
	"github.com/backsoul/quizcatalog/pkg/config"
	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/telegram"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./configs", "directorio de config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error cargando configuración: %v", err)
	}
	if cfg.Telegram.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN (o QUIZ_TELEGRAM_TOKEN) es requerido")
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Error inicializando logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core := app.New(ctx, cfg)
	defer core.Close()

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, core.Sessions)
	if err != nil {
		logger.Log.Fatal("Error creando el bot", zap.Error(err))
	}
	core.Sessions.SetNotifier(bot)

	logger.Log.Info("🤖 Bot iniciando...", zap.String("cache", core.CacheTag))
	bot.Start(ctx)
}
