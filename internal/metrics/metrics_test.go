package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(func() int { return 3 })
	m.Message("gated")
	m.Message("gated")
	m.Deletion("deleted")
	m.Transition("get_link")
	m.Rejection("unauthorized")
	m.Outbound("send.message", nil)
	m.Outbound("send.message", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("gated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletions.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("get_link")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("send.message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("send.message", "fail")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.users))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Message("x")
		m.Deletion("x")
		m.Transition("x")
		m.Rejection("x")
		m.Outbound("x", nil)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New(nil)
	m.Message("clean")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gatebot_messages_total{verdict="clean"} 1`)
}
