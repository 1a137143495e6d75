package remote

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseDelay = 250 * time.Millisecond
	defaultMaxDelay  = 2 * time.Second
	maxErrorBody     = 512
	maxRedirects     = 5
)

// StatusError respuesta no-2xx del servidor remoto
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("estado HTTP %d", e.Status)
	}
	return fmt.Sprintf("estado HTTP %d: %s", e.Status, e.Body)
}

// Options parámetros del cliente remoto
type Options struct {
	Timeout    time.Duration
	Retries    int
	RatePerSec float64
	Burst      int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client descarga documentos JSON con reintentos y límite de tasa
type Client struct {
	http      *fasthttp.Client
	timeout   time.Duration
	retries   int
	limiter   *rate.Limiter
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewClient crea un cliente fasthttp para los documentos del quiz
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "quizcatalog",
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout:   opts.Timeout,
		retries:   opts.Retries,
		limiter:   limiter,
		baseDelay: opts.BaseDelay,
		maxDelay:  opts.MaxDelay,
	}
}

// GetJSON descarga url y devuelve el cuerpo de una respuesta 2xx.
// Los estados 429/5xx y los errores de red se reintentan con backoff.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, url)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("error ejecutando petición a %s: %w", url, err)
		case status >= 200 && status < 300:
			return body, nil
		default:
			lastErr = &StatusError{Status: status, Body: truncate(strings.TrimSpace(string(body)), maxErrorBody)}
			if !isRetryableStatus(status) {
				return nil, lastErr
			}
		}

		if attempt == c.retries {
			break
		}

		logger.Log.Debug("Reintentando descarga",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))

		if err := c.sleepWithBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("la petición falló")
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	timeout := c.timeout
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, 0, context.DeadlineExceeded
	}
	req.SetTimeout(timeout)

	// Sigue hasta maxRedirects saltos; cada salto usa el mismo timeout
	if err := c.http.DoRedirects(req, resp, maxRedirects); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, err
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, 0, fmt.Errorf("error descomprimiendo respuesta: %w", err)
	}

	// resp vuelve al pool: copiar el cuerpo
	out := make([]byte, len(body))
	copy(out, body)
	return out, resp.StatusCode(), nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case fasthttp.StatusTooManyRequests, fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// backoff duplica baseDelay por intento sin pasar de maxDelay
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.maxDelay
	if attempt >= 0 && attempt < 63 && c.baseDelay <= c.maxDelay>>uint(attempt) {
		delay = c.baseDelay << uint(attempt)
	}

	delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

func (c *Client) sleepWithBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
