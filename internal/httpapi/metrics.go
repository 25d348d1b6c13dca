package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"llamachat/internal/coordinator"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llamachat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llamachat",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
	)

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Total backpressure rejections (429)",
		},
		[]string{"reason"},
	)

	modelOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamachat",
			Subsystem: "model",
			Name:      "operations_total",
			Help:      "Settled and rejected coordinator operations",
		},
		[]string{"op", "result"},
	)

	modelOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llamachat",
			Subsystem: "model",
			Name:      "operation_duration_seconds",
			Help:      "Engine call duration for load, unload and generate",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"op"},
	)

	modelReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llamachat",
			Subsystem: "model",
			Name:      "ready",
			Help:      "1 when a model is loaded and ready, 0 otherwise",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal, httpRequestDuration, httpInflight, backpressureTotal,
		modelOpsTotal, modelOpDuration, modelReady,
	)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInflight.Inc()
		defer httpInflight.Dec()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// The route pattern is only known once chi has routed the request.
		path := routePatternOrPath(r)
		statusLabel := strconv.Itoa(sr.status)
		httpRequestsTotal.WithLabelValues(path, r.Method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, statusLabel).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IncrementBackpressure is called when returning 429 to the client
func IncrementBackpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}

// CoordinatorMetrics is a coordinator.EventPublisher feeding the model_*
// metric families.
type CoordinatorMetrics struct{}

// NewCoordinatorMetrics returns a publisher recording into the default registry.
func NewCoordinatorMetrics() CoordinatorMetrics { return CoordinatorMetrics{} }

func (CoordinatorMetrics) Publish(e coordinator.Event) {
	op := string(e.Op)
	switch e.Name {
	case coordinator.EventLoadReady, coordinator.EventUnloadDone, coordinator.EventGenerateDone:
		modelOpsTotal.WithLabelValues(op, "ok").Inc()
		modelOpDuration.WithLabelValues(op).Observe(e.Duration.Seconds())
	case coordinator.EventLoadFailed, coordinator.EventUnloadFailed, coordinator.EventGenerateFailed:
		modelOpsTotal.WithLabelValues(op, "error").Inc()
		modelOpDuration.WithLabelValues(op).Observe(e.Duration.Seconds())
	case coordinator.EventRejected:
		modelOpsTotal.WithLabelValues(op, "rejected").Inc()
	}
	if e.Snapshot.Ready {
		modelReady.Set(1)
	} else {
		modelReady.Set(0)
	}
}
