package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountMetricsCounts(t *testing.T) {
	reg := NewRegistry()
	m := NewAccountMetrics(reg).(*accountMetrics)

	m.RegistrationSucceeded("civilian")
	m.RegistrationRejected("civilian", "conflict")
	m.RegistrationRejected("civilian", "conflict")
	m.LoginFailed()
	m.LoginFailed()
	m.LoginFailed()
	m.LoginSucceeded()
	m.LockoutTriggered()
	m.ResetRequested("issued")
	m.ResetCompleted("rejected")

	assert.InDelta(t, 1, testutil.ToFloat64(m.registrations.WithLabelValues("civilian")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.rejections.WithLabelValues("civilian", "conflict")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.loginFailures), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.loginSuccesses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.lockouts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resetRequests.WithLabelValues("issued")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resetCompleted.WithLabelValues("rejected")), 0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewAccountMetrics(reg).LockoutTriggered()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rachel_lockouts_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
