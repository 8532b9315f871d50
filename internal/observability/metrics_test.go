package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/medcontent/internal/compliance"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/metrics": "/metrics",
		"/posts/6f1c2b9e-8a34-4d3c-9d55-2c8f0a1b7e10":          "/posts/:id",
		"/posts/6f1c2b9e-8a34-4d3c-9d55-2c8f0a1b7e10/versions": "/posts/:id/versions",
		"/posts/abc/versions":                                  "/posts/abc/versions",
		"/compliance/scan?x=1":                                 "/compliance/scan",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, CanonicalPath(input), input)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.StageEntered("create", "init")
		m.RunFinished("create", "success", time.Second)
		m.ObserveReport(compliance.Report{})
		m.NotifyFailed()
		m.SetSubscribers(3)
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Instrument(h))
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.StageEntered("create", "rewritten")
	m.StageEntered("create", "rewritten")
	m.NotifyFailed()
	m.ObserveReport(compliance.NewScanner(nil).Scan("국내 최고의 병원. 30% 할인"))

	assert.Equal(t, 2.0, counterValue(t, reg, "medcontent_pipeline_stages_total", map[string]string{"operation": "create", "stage": "rewritten"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "medcontent_notify_send_failures_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "medcontent_compliance_matches_total", map[string]string{"category": "superlative", "classification": "violation"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "medcontent_compliance_matches_total", map[string]string{"category": "price_inducement", "classification": "warning"}))
}

func TestMetrics_Instrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/6f1c2b9e-8a34-4d3c-9d55-2c8f0a1b7e10", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, counterValue(t, reg, "http_requests_total", map[string]string{"method": "GET", "path": "/posts/:id", "status": "418"}))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
