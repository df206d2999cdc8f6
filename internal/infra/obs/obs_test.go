package obs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/internal/domain/chat"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "access_denied", Outcome(fmt.Errorf("wrap: %w", chat.ErrAccessDenied)))
	assert.Equal(t, "rejected", Outcome(chat.ErrAttachmentTooLarge))
	assert.Equal(t, "store_failed", Outcome(fmt.Errorf("%w: boom", chat.ErrSendFailed)))
	assert.Equal(t, "not_found", Outcome(chat.ErrListingNotFound))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}

func TestMetrics_ObserveAndServe(t *testing.T) {
	m := NewMetrics()
	m.ObserveCommand("chat.message.send", nil, 5*time.Millisecond)
	m.ObserveCommand("chat.message.send", chat.ErrAccessDenied, time.Millisecond)
	m.ObserveQuery("chat.message.list", nil, time.Millisecond)
	m.LiveStreams.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("command", "chat.message.send", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("command", "chat.message.send", "access_denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveStreams))

	r := gin.New()
	r.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "campuschat_bus_messages_total")
	assert.Contains(t, w.Body.String(), "campuschat_live_streams 1")
}

func TestMiddleware_RequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	mw := Middleware{Logger: newLogger(&buf, "prod"), Metrics: NewMetrics()}
	r := gin.New()
	r.Use(mw.RequestID(), mw.AccessLog())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestHealth(t *testing.T) {
	r := gin.New()
	healthy := HealthHandlers{Checks: map[string]Check{"mongo": func(context.Context) error { return nil }}}
	broken := HealthHandlers{Checks: map[string]Check{"redis": func(context.Context) error { return errors.New("dial tcp: refused") }}}
	r.GET("/livez", healthy.Livez)
	r.GET("/readyz", healthy.Readyz)
	r.GET("/broken", broken.Readyz)

	for path, code := range map[string]int{"/livez": http.StatusOK, "/readyz": http.StatusOK, "/broken": http.StatusServiceUnavailable} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}
