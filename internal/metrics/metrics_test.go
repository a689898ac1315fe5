package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("timeout"))
	m.ObserveFit("ARIMA", 3*time.Millisecond, nil)
	m.ObserveFit("ARIMA", time.Millisecond, errors.New("diverged"))
	m.ObserveRun(30)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fits.WithLabelValues("ARIMA", "failure")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.Records))
	assert.Greater(t, testutil.ToFloat64(m.LastRun), 0.0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch(nil)
		m.ObserveFit("ARIMA", time.Second, nil)
		m.ObserveRun(1)
	})
}

func TestHandler_ServesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveFit("Linear Regression", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `assetforecast_model_fits_total{model="Linear Regression",outcome="success"} 1`))
}
