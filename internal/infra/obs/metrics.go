package obs

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campuschat/internal/domain/chat"
)

// Metrics owns the process registry and every collector the service exports.
type Metrics struct {
	Registry *prometheus.Registry

	messages        *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	httpDuration    *prometheus.HistogramVec
	LiveStreams     prometheus.Gauge
	FanoutFailures  prometheus.Counter
	PreviewFailures prometheus.Counter
	DirectoryErrors prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campuschat_bus_messages_total",
			Help: "Commands and queries handled, by kind, key and outcome.",
		}, []string{"kind", "key", "outcome"}),
		messageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campuschat_bus_duration_seconds",
			Help:    "Handling latency of commands and queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "key"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campuschat_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "campuschat_live_streams",
			Help: "Open live subscriptions (conversation sessions and directory watches).",
		}),
		FanoutFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campuschat_notification_failures_total",
			Help: "Notifications that could not be delivered after retries.",
		}),
		PreviewFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campuschat_preview_update_failures_total",
			Help: "Committed messages whose conversation preview or unread update failed.",
		}),
		DirectoryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "campuschat_directory_preview_failures_total",
			Help: "Directory entries whose latest-message preview could not be resolved.",
		}),
	}
}

func (m *Metrics) ObserveCommand(key string, err error, took time.Duration) {
	m.observe("command", key, err, took)
}

func (m *Metrics) ObserveQuery(key string, err error, took time.Duration) {
	m.observe("query", key, err, took)
}

func (m *Metrics) observe(kind, key string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind, key, Outcome(err)).Inc()
	m.messageDuration.WithLabelValues(kind, key).Observe(took.Seconds())
}

func (m *Metrics) observeHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Outcome collapses an error into a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, chat.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, chat.ErrConversationNotFound), errors.Is(err, chat.ErrListingNotFound):
		return "not_found"
	case errors.Is(err, chat.ErrSelfMessaging), errors.Is(err, chat.ErrMissingHost),
		errors.Is(err, chat.ErrInvalidConversation), errors.Is(err, chat.ErrInvalidMessage),
		errors.Is(err, chat.ErrAttachmentTooLarge):
		return "rejected"
	case errors.Is(err, chat.ErrSendFailed), errors.Is(err, chat.ErrUploadFailed):
		return "store_failed"
	default:
		return "error"
	}
}
