package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

func newTestRouter(t *testing.T, health func(context.Context) error) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.DebugLevel)
	r := NewRouter(Config{
		Logger:         zap.New(core),
		Registry:       prometheus.NewRegistry(),
		JWTManager:     auth.NewJWTManager("secret", time.Hour),
		UploadMaxBytes: 1 << 20,
		HealthCheck:    health,
	})
	return r, logs
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	r, _ = newTestRouter(t, func(context.Context) error { return errors.New("db down") })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "service unavailable", decodeError(t, w).Error)
}

func TestMetricsExposeRequests(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", decodeError(t, w).Error)
}

func TestFailureHandlerRendersForwardedErrors(t *testing.T) {
	r, logs := newTestRouter(t, nil)
	r.GET("/validation", response.Wrap(func(c *gin.Context) error {
		return apperror.Validation("invalid listing", map[string]string{"title": "is required"})
	}))
	r.GET("/internal", response.Wrap(func(c *gin.Context) error {
		return errors.New("connection reset by peer")
	}))
	r.GET("/panic", response.Wrap(func(c *gin.Context) error {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/validation", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "invalid listing", body.Error)
	assert.Equal(t, "is required", body.Details["title"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Causes stay server-side.
	assert.Equal(t, "internal server error", decodeError(t, w).Error)
	assert.NotContains(t, w.Body.String(), "connection reset")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Error)

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, int64(http.StatusInternalServerError), failed[0].ContextMap()["status"])
	assert.Len(t, logs.FilterMessage("request rejected").All(), 1)
}

func TestListingWritesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/listings"},
		{http.MethodGet, "/listings/new"},
		{http.MethodPut, "/listings/6f1c2a9e-7d37-4b5e-9a51-2d8f0c6e4b11"},
		{http.MethodDelete, "/listings/6f1c2a9e-7d37-4b5e-9a51-2d8f0c6e4b11"},
		{http.MethodGet, "/listings/6f1c2a9e-7d37-4b5e-9a51-2d8f0c6e4b11/edit"},
		{http.MethodGet, "/me"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
	}
}
