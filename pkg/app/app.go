// Package app arma los servicios compartidos por el servidor web y el bot
package app

import (
	"context"
	"time"

	"github.com/backsoul/quizcatalog/pkg/config"
	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/redis"
	"github.com/backsoul/quizcatalog/pkg/remote"
	"github.com/backsoul/quizcatalog/pkg/services"
	"go.uber.org/zap"
)

type Core struct {
	Cache     services.DocumentCache
	CacheTag  string
	Catalogs  *services.CatalogService
	Questions *services.QuestionService
	Sessions  *services.SessionService

	redisClient *redis.RedisClient
}

// New conecta la caché y crea los servicios. Sin Redis configurado (o inalcanzable) usa memoria.
func New(ctx context.Context, cfg *config.Config) *Core {
	core := &Core{}

	if cfg.Cache.RedisAddr != "" {
		logger.Log.Info("🔌 Conectando a Redis", zap.String("addr", cfg.Cache.RedisAddr))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := redis.NewRedisClient(pingCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		cancel()
		if err != nil {
			logger.Log.Warn("⚠️ Redis no disponible, usando caché en memoria", zap.Error(err))
		} else {
			core.redisClient = client
			core.Cache = client
			core.CacheTag = "redis"
		}
	}
	if core.Cache == nil {
		core.Cache = services.NewMemoryCache()
		core.CacheTag = "memory"
	}

	fetcher := remote.NewClient(remote.Options{
		Timeout:    cfg.Fetch.Timeout,
		Retries:    cfg.Fetch.Retries,
		RatePerSec: cfg.Fetch.RatePerSec,
		Burst:      cfg.Fetch.Burst,
	})

	core.Catalogs = services.NewCatalogService(fetcher, core.Cache, cfg.Catalog.URL, cfg.Cache.TTL)
	core.Questions = services.NewQuestionService(fetcher, core.Cache, cfg.Cache.TTL)

	// Alcanza para todos los intentos de una descarga más sus esperas
	fetchTimeout := cfg.Fetch.Timeout * time.Duration(cfg.Fetch.Retries+2)
	core.Sessions = services.NewSessionService(ctx, core.Catalogs, core.Questions, services.SessionOptions{
		TTL:          cfg.Session.TTL,
		FetchTimeout: fetchTimeout,
	})
	core.Sessions.StartJanitor(ctx, cfg.Session.SweepEvery)

	return core
}

// Close espera las descargas en curso y libera la conexión a Redis
func (c *Core) Close() {
	c.Sessions.Wait()
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			logger.Log.Warn("Error cerrando Redis", zap.Error(err))
		}
	}
}
