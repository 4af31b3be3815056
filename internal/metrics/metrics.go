package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amorphic_learn_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amorphic_learn_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_uploads_total",
			Help: "Total number of video upload attempts",
		},
		[]string{"status"}, // "accepted", "rejected_type", "rejected_size", "error"
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amorphic_learn_upload_bytes",
			Help:    "Size of accepted video uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8),
		},
	)
)

// Transcoder metrics
var (
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_transcode_jobs_total",
			Help: "Total number of transcode jobs",
		},
		[]string{"status"}, // "success", "backup_failed", "encode_failed", "swap_failed"
	)

	TranscodeJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amorphic_learn_transcode_job_duration_seconds",
			Help:    "Transcode job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscodeJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_transcode_jobs_in_progress",
			Help: "Number of transcode jobs currently in progress",
		},
	)

	TranscodeCompressionRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "amorphic_learn_transcode_compression_ratio",
			Help:    "Output size divided by input size for successful transcodes",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2},
		},
	)
)

// Streaming metrics
var (
	StreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_stream_requests_total",
			Help: "Total number of video stream requests",
		},
		[]string{"kind"}, // "full", "range"
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amorphic_learn_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)
)

// Catalog metrics
var (
	CoursesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_courses_total",
			Help: "Total number of courses in the catalog",
		},
	)

	LessonsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_lessons_total",
			Help: "Total number of lessons in the catalog",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amorphic_learn_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
