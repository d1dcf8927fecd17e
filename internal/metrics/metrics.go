// Package metrics exposes Prometheus collectors for archive runs.
package metrics

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	documentsTotal        *prometheus.CounterVec
	failuresTotal         *prometheus.CounterVec
	stageDurationSeconds  *prometheus.HistogramVec
	cacheLookupsTotal     *prometheus.CounterVec
	archivedBytesTotal    prometheus.Counter
	lastRunSuccessSeconds prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazettes_documents_total",
				Help: "Total number of scraped documents processed, labeled by source site and outcome status.",
			},
			[]string{"site", "status"},
		)

		failuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazettes_failures_total",
				Help: "Total number of failed documents, labeled by stage and failure kind.",
			},
			[]string{"stage", "kind"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gazettes_stage_duration_seconds",
				Help:    "Histogram of per-document stage latencies.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"stage"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazettes_cache_lookups_total",
				Help: "Total number of local cache lookups, labeled by result.",
			},
			[]string{"result"},
		)

		archivedBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gazettes_archived_bytes_total",
				Help: "Total number of bytes written to the archive store.",
			},
		)

		lastRunSuccessSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gazettes_last_run_success_timestamp_seconds",
				Help: "Unix time of the last archive run that completed without a fatal error.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname without "www.".
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return "unknown"
	}
	return host
}

// ObserveDocument counts one processed document.
func ObserveDocument(referrer, status string) {
	documentsTotal.WithLabelValues(SanitizeSite(referrer), status).Inc()
}

// ObserveFailure counts a failed document by stage and kind.
func ObserveFailure(stage, kind string) {
	failuresTotal.WithLabelValues(stage, kind).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, duration time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveCache counts a cache hit or miss.
func ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveArchivedBytes adds to the archived byte counter.
func ObserveArchivedBytes(n int64) {
	if n > 0 {
		archivedBytesTotal.Add(float64(n))
	}
}

// MarkRunSucceeded stamps the last successful run time.
func MarkRunSucceeded(at time.Time) {
	lastRunSuccessSeconds.Set(float64(at.Unix()))
}

// Push sends the default registry to a Prometheus pushgateway.
// Archive runs are short-lived batch jobs, so there is no scrape endpoint.
func Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
