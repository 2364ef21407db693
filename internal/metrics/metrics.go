package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	// outcome: rule, fallback
	TargetCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "target_calculations_total",
			Help: "Indicator target calculations by outcome",
		},
		[]string{"indicator", "outcome"},
	)

	CustomTargetVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custom_target_verdicts_total",
			Help: "Custom target validations by verdict",
		},
		[]string{"verdict"},
	)

	DashboardBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_build_duration_seconds",
			Help:    "Time to fetch the snapshot and aggregate a dashboard",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"dashboard"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func RecordTargetCalculation(indicator, outcome string) {
	TargetCalculations.WithLabelValues(indicator, outcome).Inc()
}

func RecordCustomTargetVerdict(verdict string) {
	CustomTargetVerdicts.WithLabelValues(verdict).Inc()
}

func RecordDashboardBuild(dashboard string, d time.Duration) {
	DashboardBuildDuration.WithLabelValues(dashboard).Observe(d.Seconds())
}

func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(kind, result).Inc()
}

// Middleware пишет длительность запроса с шаблоном маршрута chi, а не сырым путём.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
