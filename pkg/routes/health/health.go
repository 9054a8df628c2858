// Package health serves liveness and readiness checks.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	pingTimeout = 2 * time.Second
)

// Pinger is a dependency that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RegistryState reports whether a registry snapshot is loaded
type RegistryState interface {
	Loaded() bool
}

// Checker checks the registry and the optional named dependencies
type Checker struct {
	registry RegistryState
	deps     map[string]Pinger
	version  string
	started  time.Time
}

// NewChecker creates a checker. deps such as the database or redis are optional;
// nil entries are skipped.
func NewChecker(registry RegistryState, version string, deps map[string]Pinger) *Checker {
	checked := make(map[string]Pinger, len(deps))
	for name, dep := range deps {
		if dep != nil {
			checked[name] = dep
		}
	}
	return &Checker{registry: registry, deps: checked, version: version, started: time.Now()}
}

func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

type Report struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Checks     map[string]*Check `json:"checks"`
	ReportedAt time.Time         `json:"reported_at"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Check pings every dependency concurrently; any failure makes the report unhealthy
func (c *Checker) Check(ctx context.Context) *Report {
	report := &Report{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Checks:     make(map[string]*Check, len(c.deps)+1),
		ReportedAt: time.Now().UTC(),
	}

	report.Checks["registry"] = &Check{Status: StatusHealthy}
	if c.registry == nil || !c.registry.Loaded() {
		report.Checks["registry"] = &Check{Status: StatusUnhealthy, Message: "registry snapshot not loaded"}
	}

	var mu sync.Mutex
	var g errgroup.Group
	for name, dep := range c.deps {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			start := time.Now()
			check := &Check{Status: StatusHealthy}
			if err := dep.Ping(pingCtx); err != nil {
				check = &Check{Status: StatusUnhealthy, Message: err.Error()}
			} else {
				check.Latency = time.Since(start).String()
			}

			mu.Lock()
			report.Checks[name] = check
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, check := range report.Checks {
		if check.Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

// Health returns the full report, 503 when anything is down
func (c *Checker) Health(ctx echo.Context) error {
	report := c.Check(ctx.Request().Context())
	if report.Status != StatusHealthy {
		return ctx.JSON(http.StatusServiceUnavailable, report)
	}
	return ctx.JSON(http.StatusOK, report)
}

// Live only reports that the process answers
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether runs can be served
func (c *Checker) Ready(ctx echo.Context) error {
	if c.Check(ctx.Request().Context()).Status != StatusHealthy {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
