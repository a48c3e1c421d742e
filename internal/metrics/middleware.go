package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware counts HTTP requests and their latency by status code, method
// and route pattern.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMiddleware(reg prometheus.Registerer) *Middleware {
	m := &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests partitioned by status code, method and HTTP path.",
		}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_milliseconds",
			Help:      "Time spent on the request partitioned by status code, method and HTTP path.",
			Buckets:   []float64{50, 300, 1000, 5000, 30000},
		}, []string{"code", "method", "path"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

// Handler returns a handler for the middleware pattern.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rp := rctx.RoutePattern()
			code := strconv.Itoa(ww.Status())
			m.requests.WithLabelValues(code, r.Method, rp).Inc()
			m.latency.WithLabelValues(code, r.Method, rp).Observe(float64(time.Since(start).Milliseconds()))
		}
	}
	return http.HandlerFunc(fn)
}
