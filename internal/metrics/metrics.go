// Package metrics provides Prometheus metrics for the image player server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/crazy-max/imgplayer/internal/browser"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgplayer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgplayer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Listing metrics
	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgplayer_listings_total",
			Help: "Total number of directory listings",
		},
		[]string{"source", "mode", "status"},
	)

	// Archive metrics
	archiveOpensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgplayer_archive_opens_total",
			Help: "Total number of archive opens",
		},
		[]string{"status"},
	)

	archiveEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgplayer_archive_evictions_total",
			Help: "Total number of archives released from the cache",
		},
	)

	archiveEntryBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgplayer_archive_entry_bytes_total",
			Help: "Total bytes served from archive entries",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder records browser events
type Recorder struct{}

var _ browser.Observer = Recorder{}

// Listed records a directory listing.
func (Recorder) Listed(source browser.Source, imageOnly bool, err error) {
	mode := "all"
	if imageOnly {
		mode = "images"
	}
	listingsTotal.WithLabelValues(string(source), mode, status(err)).Inc()
}

// ArchiveOpened records an archive open.
func (Recorder) ArchiveOpened(_ string, err error) {
	archiveOpensTotal.WithLabelValues(status(err)).Inc()
}

// ArchiveEvicted records an archive release.
func (Recorder) ArchiveEvicted(_ string) {
	archiveEvictionsTotal.Inc()
}

// RecordArchiveEntry records the size of a served archive entry.
func RecordArchiveEntry(bytes int) {
	archiveEntryBytes.Add(float64(bytes))
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics labelled with the matched route
// template, so the paths of a virtual tree do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
