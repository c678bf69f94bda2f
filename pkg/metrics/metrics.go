// Package metrics defines the Prometheus collectors for the report pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics container.
type Metrics struct {
	// Report generation
	ReportsGeneratedTotal *prometheus.CounterVec
	RenderDuration        *prometheus.HistogramVec
	PagesRendered         prometheus.Histogram
	ReportSizeBytes       *prometheus.HistogramVec

	// Transfer
	TransferOperationsTotal *prometheus.CounterVec
	TransferDuration        *prometheus.HistogramVec
	TransferBytes           *prometheus.CounterVec

	// Service info
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics registers the collectors and returns the container.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		ReportsGeneratedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reports_generated_total",
				Help:      "Total number of report generation attempts",
			},
			[]string{"format", "status"},
		),

		RenderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "render_duration_seconds",
				Help:      "Duration of report rendering",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),

		PagesRendered: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pages_rendered",
				Help:      "Number of pages in rendered documents",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
		),

		ReportSizeBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_size_bytes",
				Help:      "Size of rendered documents",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),

		TransferOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfer_operations_total",
				Help:      "Total number of SharePoint transfer operations",
			},
			[]string{"operation", "status"},
		),

		TransferDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfer_duration_seconds",
				Help:      "Duration of SharePoint transfer operations",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),

		TransferBytes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transfer_bytes_total",
				Help:      "Bytes moved through SharePoint transfers",
			},
			[]string{"operation"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service version information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics container, initializing a default one if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("reportmill", "")
	}
	return defaultMetrics
}

// ObserveReport records the outcome of one generation attempt.
func (m *Metrics) ObserveReport(format string, err error, seconds float64, pages int, sizeBytes int) {
	m.ReportsGeneratedTotal.WithLabelValues(format, statusLabel(err)).Inc()
	if err == nil {
		m.RenderDuration.WithLabelValues(format).Observe(seconds)
		m.PagesRendered.Observe(float64(pages))
		m.ReportSizeBytes.WithLabelValues(format).Observe(float64(sizeBytes))
	}
}

// ObserveTransfer records the outcome of one transfer operation.
func (m *Metrics) ObserveTransfer(operation string, err error, seconds float64, bytes int) {
	m.TransferOperationsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	if err == nil {
		m.TransferDuration.WithLabelValues(operation).Observe(seconds)
		m.TransferBytes.WithLabelValues(operation).Add(float64(bytes))
	}
}

func statusLabel(err error) string {
	return strconv.FormatBool(err == nil)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts the metrics HTTP server on the given port. Blocking.
func Serve(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, Handler())
	return http.ListenAndServe(":"+strconv.Itoa(port), mux)
}
