package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/crucial707/asset-audit/internal/audit"
)

const namespace = "asset_audit"

// Registry holds every collector this module exports. It is separate from the
// global default registry so textfile exports stay deterministic.
var Registry = prometheus.NewRegistry()

var (
	// RequestDuration tracks API request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts API requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunsTotal counts audit runs by result (success or the fetch failure kind).
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of audit runs by result",
		},
		[]string{"result"},
	)

	// FetchDuration observes how long the inventory request took.
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Inventory API fetch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// Assets is the latest asset count per risk level.
	Assets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets",
			Help:      "Assets in the latest audit by risk level",
		},
		[]string{"risk"},
	)

	// AssetsByEnvironment is the latest asset count per raw environment value.
	AssetsByEnvironment = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets_by_environment",
			Help:      "Assets in the latest audit by environment",
		},
		[]string{"environment"},
	)

	ExposedAssets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "exposed_assets",
		Help:      "Internet-exposed assets in the latest audit",
	})

	HighPriorityAssets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "high_priority_assets",
		Help:      "Production assets that are exposed or high criticality in the latest audit",
	})

	LastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful audit",
	})
)

var numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

func init() {
	Registry.MustRegister(
		RequestDuration, RequestTotal,
		RunsTotal, FetchDuration,
		Assets, AssetsByEnvironment, ExposedAssets, HighPriorityAssets, LastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an API request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordFetch observes the inventory request duration.
func RecordFetch(d time.Duration) {
	FetchDuration.Observe(d.Seconds())
}

// RecordFailure counts a failed run under result.
func RecordFailure(result string) {
	RunsTotal.WithLabelValues(result).Inc()
}

// RecordSummary replaces the latest-audit gauges with the summary's numbers.
func RecordSummary(s audit.Summary) {
	RunsTotal.WithLabelValues("success").Inc()

	for _, c := range s.RiskLevels.Entries() {
		Assets.WithLabelValues(c.Name).Set(float64(c.Count))
	}
	AssetsByEnvironment.Reset()
	for _, c := range s.Environments.Entries() {
		AssetsByEnvironment.WithLabelValues(c.Name).Set(float64(c.Count))
	}
	ExposedAssets.Set(float64(len(s.Exposed)))
	HighPriorityAssets.Set(float64(len(s.HighPriority)))

	ts := s.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	LastSuccess.Set(float64(ts.Unix()))
}

// WriteTextfile writes the registry in Prometheus text format to path,
// atomically, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
