package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/metrics"
	"github.com/backsoul/quizcatalog/pkg/remote"
	"go.uber.org/zap"
)

// ShapeError el documento remoto no tiene la forma esperada; Message es apto para el usuario
type ShapeError struct {
	Message string
}

func (e *ShapeError) Error() string {
	return e.Message
}

// documentLoader descarga, valida y cachea documentos JSON
type documentLoader struct {
	fetcher Fetcher
	cache   DocumentCache
	ttl     time.Duration
}

// load devuelve el cuerpo de url, desde la caché si está fresco.
// Solo se cachean cuerpos que pasan validate.
func (l *documentLoader) load(ctx context.Context, kind, key, url, failPrefix string, validate func([]byte) error) ([]byte, error) {
	if l.cache != nil {
		data, ok, err := l.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Log.Warn("⚠️ Error leyendo caché de documentos", zap.String("key", key), zap.Error(err))
			metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		case ok:
			if verr := validate(data); verr == nil {
				metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
				return data, nil
			}
			// Entrada corrupta: se descarta y se vuelve a descargar
			_ = l.cache.Delete(ctx, key)
			metrics.CacheLookups.WithLabelValues(kind, "invalid").Inc()
		default:
			metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		}
	}

	start := time.Now()
	body, err := l.fetcher.GetJSON(ctx, url)
	metrics.ObserveFetch(kind, start, err)
	if err != nil {
		return nil, loadFailure(failPrefix, err)
	}

	if err := validate(body); err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, body, l.ttl); err != nil {
			logger.Log.Warn("⚠️ Error guardando en caché de documentos", zap.String("key", key), zap.Error(err))
		}
	}

	return body, nil
}

func (l *documentLoader) invalidate(ctx context.Context, key string) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, key)
}

// loadFailure traduce errores de descarga al mensaje que ve el usuario
func loadFailure(prefix string, err error) error {
	var se *remote.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%s (%d)", prefix, se.Status)
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
