package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for a simulation run. It
// satisfies the driver's SimMetrics interface.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks              prometheus.Counter
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	Anomalies          prometheus.Counter
	WaypointIndex      prometheus.Gauge
	Velocity           prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total simulation ticks executed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_reading_submissions_total",
		Help: "Telemetry reading submissions to the ingestion API, labeled by outcome.",
	}, []string{"outcome"})
	submissions, err = registerCounterVec(reg, submissions, "sim_reading_submissions_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_submission_duration_seconds",
		Help:    "Reading submission latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "sim_submission_duration_seconds")
	if err != nil {
		return nil, err
	}

	anomalies, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_anomalies_total",
		Help: "Readings flagged as anomalous by the ingestion API.",
	}), "sim_anomalies_total")
	if err != nil {
		return nil, err
	}

	waypointIndex, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_waypoint_index",
		Help: "Index of the waypoint the drone is currently en route to.",
	}), "sim_waypoint_index")
	if err != nil {
		return nil, err
	}

	velocity, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_velocity_mps",
		Help: "Current drone velocity in metres per second.",
	}), "sim_velocity_mps")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:           gatherer,
		Ticks:              ticks,
		Submissions:        submissions,
		SubmissionDuration: duration,
		Anomalies:          anomalies,
		WaypointIndex:      waypointIndex,
		Velocity:           velocity,
	}, nil
}

// ObserveTick records one simulation tick and the velocity it produced.
func (c *SimCollector) ObserveTick(velocity float64) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.Velocity.Set(velocity)
}

// ObserveSubmission records one reading submission attempt.
func (c *SimCollector) ObserveSubmission(outcome string, seconds float64, anomaly bool) {
	if c == nil {
		return
	}
	c.Submissions.WithLabelValues(outcome).Inc()
	c.SubmissionDuration.Observe(seconds)
	if anomaly {
		c.Anomalies.Inc()
	}
}

// ObserveWaypointReached records advancement to the given waypoint index.
func (c *SimCollector) ObserveWaypointReached(index int) {
	if c == nil {
		return
	}
	c.WaypointIndex.Set(float64(index))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
