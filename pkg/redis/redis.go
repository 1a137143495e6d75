package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const documentKeyPrefix = "quiz:doc:"

// RedisClient caché de documentos remotos (índice y cuestionarios) en Redis
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient crea una nueva instancia del cliente Redis y verifica la conexión
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error conectando a Redis en %s: %w", addr, err)
	}

	logger.Log.Info("✅ Conexión exitosa a Redis", zap.String("addr", addr))

	return &RedisClient{client: rdb}, nil
}

// Get obtiene un documento guardado; ok es false si no existe o expiró
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, documentKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error obteniendo documento %s: %w", key, err)
	}
	return data, true, nil
}

// Set guarda un documento con expiración
func (r *RedisClient) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, documentKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("error guardando documento %s: %w", key, err)
	}
	return nil
}

// Delete elimina un documento
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, documentKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("error eliminando documento %s: %w", key, err)
	}
	return nil
}

// HealthCheck verifica que Redis esté funcionando
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if _, err := r.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}
