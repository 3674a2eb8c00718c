package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IngestCollector bundles Prometheus metrics for the flight-logging HTTP
// surface and the record store behind it.
type IngestCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	StoredFlights  prometheus.Gauge
	StoredReadings prometheus.Gauge
	AnomalyCount   prometheus.Gauge
}

// NewIngestCollector registers ingest metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewIngestCollector(reg prometheus.Registerer) (*IngestCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_requests_total",
		Help: "Total handled ingest API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "ingest_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_request_duration_seconds",
		Help:    "Ingest API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "ingest_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	flights, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_stored_flights",
		Help: "Current number of flights in the store.",
	}), "ingest_stored_flights")
	if err != nil {
		return nil, err
	}
	readings, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_stored_readings",
		Help: "Current number of sensor readings in the store.",
	}), "ingest_stored_readings")
	if err != nil {
		return nil, err
	}
	anomalies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_anomalous_readings",
		Help: "Current number of stored readings flagged as anomalous.",
	}), "ingest_anomalous_readings")
	if err != nil {
		return nil, err
	}

	return &IngestCollector{
		gatherer:       gatherer,
		HTTPRequests:   requests,
		HTTPDurations:  durations,
		StoredFlights:  flights,
		StoredReadings: readings,
		AnomalyCount:   anomalies,
	}, nil
}

// Middleware is a chi middleware recording request counts and durations.
// The route label is the registered chi pattern, not the raw URL, so
// cardinality stays bounded.
func (c *IngestCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// SetStoreCounts satisfies the store's metrics recorder hook so gauge values
// track the store's mutators directly.
func (c *IngestCollector) SetStoreCounts(flights, readings, anomalies int) {
	if c == nil {
		return
	}
	c.StoredFlights.Set(float64(flights))
	c.StoredReadings.Set(float64(readings))
	c.AnomalyCount.Set(float64(anomalies))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *IngestCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
