package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersInstruments(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Builds.WithLabelValues("morning", ResultMiss).Inc()
	m.Builds.WithLabelValues("morning", ResultHit).Add(2)
	m.RegistrySegments.Set(26)
	m.RegistryReloads.WithLabelValues("ok").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Builds.WithLabelValues("morning", ResultMiss)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Builds.WithLabelValues("morning", ResultHit)))
	assert.Equal(t, float64(26), testutil.ToFloat64(m.RegistrySegments))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RegistryReloads.WithLabelValues("ok")))
}

func TestNew_IsolatedRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.Builds.WithLabelValues("evening", ResultHit).Inc()

	assert.Equal(t, float64(0), testutil.ToFloat64(b.Builds.WithLabelValues("evening", ResultHit)))
}

func TestNewServer_ServesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Builds.WithLabelValues("afternoon", ResultMiss).Inc()
	m.BuildSeconds.WithLabelValues("afternoon").Observe(0.01)

	srv := m.NewServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `siddur_builds_total{result="miss",service="afternoon"} 1`)
	assert.Contains(t, string(body), "siddur_build_seconds_bucket")
}
