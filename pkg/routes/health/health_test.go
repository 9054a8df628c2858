package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryState bool

func (r registryState) Loaded() bool { return bool(r) }

func serve(t *testing.T, checker *Checker, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	checker.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("healthy", func(t *testing.T) {
		rec, body := serve(t, NewChecker(registryState(true), "test", map[string]Pinger{"redis": ok, "database": nil}), "/api/v1/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Contains(t, checks, "registry")
		assert.Contains(t, checks, "redis")
		assert.NotContains(t, checks, "database")
	})

	t.Run("dependency down", func(t *testing.T) {
		rec, body := serve(t, NewChecker(registryState(true), "test", map[string]Pinger{"redis": down}), "/api/v1/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unhealthy", body["status"])
	})

	t.Run("registry not loaded", func(t *testing.T) {
		rec, body := serve(t, NewChecker(registryState(false), "test", nil), "/api/v1/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not ready", body["status"])
	})

	t.Run("ready", func(t *testing.T) {
		rec, _ := serve(t, NewChecker(registryState(true), "test", nil), "/api/v1/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("live", func(t *testing.T) {
		rec, body := serve(t, NewChecker(registryState(false), "test", nil), "/api/v1/health/live")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alive", body["status"])
	})
}
