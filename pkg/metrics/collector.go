// Package metrics exposes the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal       *prometheus.CounterVec
	modelCallDuration      *prometheus.HistogramVec
	uploadedFilesPerCall   prometheus.Histogram
	postProcessingFailures *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers all instruments on reg.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_generations_total",
				Help:      "Image generation requests by result code",
			},
			[]string{"code"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Latency of the image model call",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		uploadedFilesPerCall: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "uploaded_files_per_request",
				Help:      "Number of reference images per generation request",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
			},
		),
		postProcessingFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "post_processing_failures_total",
				Help:      "Failures of archive, ledger, event and email steps",
			},
			[]string{"step"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (c *Collector) RecordGeneration(code string, files int) {
	c.generationsTotal.WithLabelValues(code).Inc()
	c.uploadedFilesPerCall.Observe(float64(files))
}

// ObserveModelCall implements imagegen.Observer.
func (c *Collector) ObserveModelCall(outcome string, d time.Duration) {
	c.modelCallDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (c *Collector) RecordPostProcessingFailure(step string) {
	c.postProcessingFailures.WithLabelValues(step).Inc()
	c.logger.Debug("post-processing step failed", zap.String("step", step))
}
