package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_http_requests_total",
			Help: "Total de peticiones HTTP atendidas",
		},
		[]string{"method", "route", "status"},
	)

	RemoteFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_remote_fetches_total",
			Help: "Descargas de documentos remotos por tipo y resultado",
		},
		[]string{"kind", "result"},
	)

	RemoteFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_remote_fetch_duration_seconds",
			Help:    "Duración de las descargas de documentos remotos",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"kind"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_cache_lookups_total",
			Help: "Consultas a la caché de documentos",
		},
		[]string{"kind", "result"},
	)

	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_navigation_transitions_total",
			Help: "Transiciones de navegación aplicadas o rechazadas",
		},
		[]string{"action", "result"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Sesiones de navegador en memoria",
		},
	)

	registerOnce sync.Once
)

// Init registra los colectores en el registro por defecto
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RemoteFetches, RemoteFetchDuration,
			CacheLookups, Transitions, ActiveSessions)
	})
}

// ObserveFetch registra una descarga remota
func ObserveFetch(kind string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RemoteFetches.WithLabelValues(kind, result).Inc()
	RemoteFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveRequest registra una petición HTTP ya respondida
func ObserveRequest(ctx *fasthttp.RequestCtx, route string) {
	RequestCounter.WithLabelValues(
		string(ctx.Method()),
		route,
		strconv.Itoa(ctx.Response.StatusCode()),
	).Inc()
}

// Handler expone /metrics sobre fasthttp
func Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}
