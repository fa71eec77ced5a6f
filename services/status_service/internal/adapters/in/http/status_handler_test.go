package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/services/status_service/internal/adapters/out/memory"
	"github.com/qwqdev/livestatus/services/status_service/internal/application"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/entity"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/filter"
)

const testSecret = "s3cret"

type testServer struct {
	router  *gin.Engine
	metrics *Metrics
	now     time.Time
}

func newTestServer(t *testing.T, mode entity.Mode, limiter *RateLimiter, rules ...filter.Rule) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	redactor, err := filter.Compile(rules)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	ts := &testServer{metrics: metrics, now: time.UnixMilli(0)}
	uc := application.NewStatusUseCase(redactor, memory.NewStoreForMode(mode), 20*time.Second,
		application.WithClock(func() time.Time { return ts.now }))

	if limiter != nil {
		limiter.metrics = metrics
	}
	ts.router = NewRouter(RouterDeps{
		Handler:     NewStatusHandler(uc, mode == entity.ModeSingle, metrics),
		Secret:      testSecret,
		RateLimiter: limiter,
		Metrics:     metrics,
		Gatherer:    reg,
	})
	return ts
}

func (ts *testServer) do(method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) list(t *testing.T) []status.Status {
	t.Helper()
	rec := ts.do(http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []status.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const macBody = `{"title":"secret-42 window","app_name":"Notes","os_name":"mac","force_status_type":"N/A"}`

func TestPutStatusRequiresSharedKey(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil)

	rec := ts.do(http.MethodPut, "/api/status", "", macBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPut, "/api/status", "wrong", macBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Empty(t, ts.list(t))
	assert.Equal(t, float64(2), testutil.ToFloat64(ts.metrics.rejected.WithLabelValues(reasonUnauthorized)))
}

func TestPutStatusAcceptsTrimmedKey(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil, filter.Rule{Regex: `secret-\d+`, Replacement: "REDACTED"})

	rec := ts.do(http.MethodPut, "/api/status", "  "+testSecret+"\t", macBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	ts.now = time.UnixMilli(5000)
	got := ts.list(t)
	require.Len(t, got, 1)
	assert.Equal(t, status.Status{Title: "REDACTED window", AppName: "Notes", OSName: "mac", ForceStatusType: "N/A"}, got[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.reports.WithLabelValues("mac")))

	ts.now = time.UnixMilli(25000)
	assert.Empty(t, ts.list(t))
	assert.Equal(t, float64(0), testutil.ToFloat64(ts.metrics.freshDevices))
}

func TestPutStatusRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil)

	for name, body := range map[string]string{
		"not json":      `{"title":`,
		"missing field": `{"title":"t","app_name":"a","os_name":"linux"}`,
		"wrong type":    `{"title":1,"app_name":"a","os_name":"linux","force_status_type":"N/A"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := ts.do(http.MethodPut, "/api/status", testSecret, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, ts.list(t))
}

func TestPutStatusAllowsEmptyStrings(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil)

	rec := ts.do(http.MethodPut, "/api/status", testSecret, `{"title":"","app_name":"","os_name":"","force_status_type":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []status.Status{{}}, ts.list(t))
}

func TestGetStatusSingleSlot(t *testing.T) {
	ts := newTestServer(t, entity.ModeSingle, nil)

	decode := func() status.Status {
		rec := ts.do(http.MethodGet, "/api/status", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var st status.Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		return st
	}

	assert.Equal(t, status.Offline(), decode())

	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
	assert.Equal(t, "secret-42 window", decode().Title)

	ts.now = time.UnixMilli(20001)
	assert.Equal(t, status.Offline(), decode())
}

func TestRateLimitedWrites(t *testing.T) {
	now := time.UnixMilli(0)
	limiter := newRateLimiter(RateLimiterConfig{GlobalQPS: 100, IPQPSLimit: 1, BurstSize: 1}, nil,
		func() time.Time { return now })
	ts := newTestServer(t, entity.ModeMulti, limiter)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.rejected.WithLabelValues(reasonRateLimited)))

	// 读接口不限流
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/status", "", "").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil)

	rec := ts.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, macBody).Code)
	rec = ts.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `livestatus_status_reports_total{device="mac"} 1`)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPut, "/log/level?v=debug", "", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/log/level", "", "").Code)
}

func TestMetricsExposeRedactedDeviceOnly(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil, filter.Rule{Regex: `^alice-laptop$`, Replacement: "laptop"})

	body := `{"title":"t","app_name":"a","os_name":"alice-laptop","force_status_type":"N/A"}`
	require.Equal(t, http.StatusOK, ts.do(http.MethodPut, "/api/status", testSecret, body).Code)

	got := ts.list(t)
	require.Len(t, got, 1)
	assert.Equal(t, "laptop", got[0].OSName)

	rec := ts.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice-laptop")
	assert.Contains(t, rec.Body.String(), `livestatus_status_reports_total{device="laptop"} 1`)
}

func TestLogLevelAuthFailureNotCountedAsRejectedReport(t *testing.T) {
	ts := newTestServer(t, entity.ModeMulti, nil)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPut, "/log/level?v=debug", "wrong", "").Code)
	assert.Equal(t, float64(0), testutil.ToFloat64(ts.metrics.rejected.WithLabelValues(reasonUnauthorized)))
}
