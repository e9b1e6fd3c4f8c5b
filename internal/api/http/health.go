package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Pinger is any dependency with a cheap liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	serviceName string
	version     string
	checks      map[string]Pinger
	timeout     time.Duration
}

// NewHealthHandler reports the given dependencies. Nil checks are listed as
// disabled.
func NewHealthHandler(serviceName, version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checks:      checks,
		timeout:     time.Second,
	}
}

// HealthCheck answers 503 when a configured dependency is down, so load
// balancers take the instance out of rotation.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, p := range h.checks {
		if p == nil {
			results[name] = "disabled"
			continue
		}
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			results[name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
		} else {
			results[name] = "up"
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Checks:    results,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
