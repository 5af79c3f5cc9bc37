package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for requests that matched no route or named no registered type.
const (
	unknownRoute   = "unknown"
	unregistered   = "unregistered"
	docTypeURLPart = "type"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esmapd",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmapd",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route",
		},
		[]string{"method", "route", "status"},
	)

	docTypeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esmapd",
			Name:      "doc_type_requests_total",
			Help:      "Search, count and document requests by document type",
		},
		[]string{"doc_type", "route", "status"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "esmapd",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests being served",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, docTypeRequestsTotal, httpInFlight)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration per chi route pattern.
// Requests on /types/{type} routes are also counted per document type;
// names known rejects are reported as "unregistered" so arbitrary path
// values never become label values. known may be nil.
func Middleware(known func(docType string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			route := routeLabel(chi.RouteContext(r.Context()))

			httpRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
			if docType := chi.URLParam(r, docTypeURLPart); docType != "" {
				docTypeRequestsTotal.WithLabelValues(docTypeLabel(docType, known), route, code).Inc()
			}
		})
	}
}

// routeLabel is the matched route pattern, keeping label cardinality bounded.
func routeLabel(rctx *chi.Context) string {
	if rctx == nil {
		return unknownRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unknownRoute
}

func docTypeLabel(docType string, known func(string) bool) string {
	if known == nil || !known(docType) {
		return unregistered
	}
	return docType
}
