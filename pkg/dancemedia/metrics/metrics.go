// Package metrics exports Prometheus metrics for the HTTP surface and the
// media pipeline. Metrics implements dancemedia.EventSink.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
)

const namespace = "folklorico_media"

type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	UploadsTotal        *prometheus.CounterVec
	TranscodeTotal      *prometheus.CounterVec
	TranscodeDuration   *prometheus.HistogramVec
	MediaDeletedTotal   prometheus.Counter
	ObjectDeleteFailure prometheus.Counter
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Uploads by media type and outcome (transcoded, original, failed)",
			},
			[]string{"media_type", "outcome"},
		),
		TranscodeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcode_runs_total",
				Help:      "ffmpeg runs by operation and status",
			},
			[]string{"operation", "status"},
		),
		TranscodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transcode_duration_seconds",
				Help:      "ffmpeg run duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
		MediaDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_deleted_total",
				Help:      "Media items deleted",
			},
		),
		ObjectDeleteFailure: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "object_delete_failures_total",
				Help:      "Object store deletes that failed and left an orphaned object",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) MediaUploaded(ctx context.Context, item *dancemedia.MediaItem, transcoded bool) {
	outcome := "original"
	if transcoded {
		outcome = "transcoded"
	}
	m.UploadsTotal.WithLabelValues(string(item.MediaType), outcome).Inc()
}

func (m *Metrics) UploadFailed(ctx context.Context, mediaType dancemedia.MediaType, err error) {
	m.UploadsTotal.WithLabelValues(string(mediaType), "failed").Inc()
}

func (m *Metrics) TranscodeFinished(ctx context.Context, op string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TranscodeTotal.WithLabelValues(op, status).Inc()
	m.TranscodeDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) MediaDeleted(ctx context.Context, id uuid.UUID) {
	m.MediaDeletedTotal.Inc()
}

func (m *Metrics) ObjectDeleteFailed(ctx context.Context, key string, err error) {
	m.ObjectDeleteFailure.Inc()
}

var _ dancemedia.EventSink = (*Metrics)(nil)
