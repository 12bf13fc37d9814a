// Package monitoring exposes pipeline counters over Prometheus.
package monitoring

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/application/loader"
)

// Metrics holds the pipeline's instrumentation.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	ActivityLatency *prometheus.HistogramVec
	FeedPublished   prometheus.Counter
	registry        *prometheus.Registry
}

// New creates and registers all pipeline metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "load_outcomes_total",
			Help:      "Load outcomes by class (inserted, already_existed, skipped, failed).",
		}, []string{"outcome"}),
		ActivityLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pipeline",
			Name:      "activity_duration_seconds",
			Help:      "Duration of pipeline activities.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"activity"}),
		FeedPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "feed_events_published_total",
			Help:      "Feed events published to the bus.",
		}),
		registry: registry,
	}
}

// ObserveSummary folds a load summary into the outcome counters.
func (m *Metrics) ObserveSummary(s loader.Summary) {
	m.Outcomes.WithLabelValues("inserted").Add(float64(s.Inserted))
	m.Outcomes.WithLabelValues("already_existed").Add(float64(s.AlreadyExisted))
	m.Outcomes.WithLabelValues("skipped").Add(float64(s.Skipped))
	m.Outcomes.WithLabelValues("failed").Add(float64(s.Failed))
}

// ObserveOutcome counts one load outcome.
func (m *Metrics) ObserveOutcome(outcome string) {
	m.Outcomes.WithLabelValues(outcome).Inc()
}

// ObservePublished counts feed events published to the bus.
func (m *Metrics) ObservePublished(n int) {
	m.FeedPublished.Add(float64(n))
}

// ObserveActivity records one activity duration.
func (m *Metrics) ObserveActivity(name string, elapsed time.Duration) {
	m.ActivityLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Serve exposes /metrics on the given port. Blocks; run in a goroutine.
func (m *Metrics) Serve(port int, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Metrics endpoint listening", zap.String("addr", addr))
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
