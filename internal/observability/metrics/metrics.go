package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "loadprofile_"

	outcomeParsed  = "parsed"
	outcomeSkipped = "skipped"
)

var (
	registerOnce sync.Once

	profilesTotal   *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		profilesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "profiles_total",
				Help: "Total profiles built by validation result",
			},
			[]string{"result"},
		)
		rowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_total",
				Help: "Total data rows seen by outcome",
			},
			[]string{"outcome"},
		)
		pipelineLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pipeline_seconds",
				Help:    "Pipeline run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		)

		prometheus.MustRegister(profilesTotal, rowsTotal, pipelineLatency, requestsTotal)
	})
}

// ObserveProfile records one pipeline run: its verdict reason, the rows it
// parsed and skipped, and how long it took.
func ObserveProfile(source, result string, parsed, skipped int, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	if profilesTotal != nil {
		profilesTotal.WithLabelValues(result).Inc()
	}
	if rowsTotal != nil {
		if parsed > 0 {
			rowsTotal.WithLabelValues(outcomeParsed).Add(float64(parsed))
		}
		if skipped > 0 {
			rowsTotal.WithLabelValues(outcomeSkipped).Add(float64(skipped))
		}
	}
	if pipelineLatency != nil {
		pipelineLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// IncRequest counts an HTTP request.
func IncRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	if requestsTotal != nil {
		requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
