package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is checked on every /health request.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler serves /health and /status for the monitored checks and
// dependencies. With neither registered the service reports healthy.
type HealthHandler struct {
	monitors     []*Monitor
	dependencies []dependency
}

func NewHealthHandler(monitors ...*Monitor) *HealthHandler {
	return &HealthHandler{monitors: monitors}
}

// WithDependency adds a dependency that must answer Ping for /health to report OK.
func (h *HealthHandler) WithDependency(name string, p Pinger) *HealthHandler {
	h.dependencies = append(h.dependencies, dependency{name: name, pinger: p})
	return h
}

func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/health", h.health)
	r.GET("/status", h.status)
}

func (h *HealthHandler) health(c *gin.Context) {
	summary, healthy := h.check(c.Request.Context())
	if !healthy {
		c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", summary)
		return
	}
	c.String(http.StatusOK, "OK - %s", summary)
}

func (h *HealthHandler) status(c *gin.Context) {
	summary, _ := h.check(c.Request.Context())
	c.String(http.StatusOK, "%s", summary)
}

func (h *HealthHandler) check(ctx context.Context) (string, bool) {
	if len(h.monitors) == 0 && len(h.dependencies) == 0 {
		return "no background checks configured", true
	}

	healthy := true
	parts := make([]string, 0, len(h.monitors)+len(h.dependencies))
	for _, d := range h.dependencies {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := d.pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			healthy = false
			parts = append(parts, fmt.Sprintf("❌ %s unreachable (%v)", d.name, err))
			continue
		}
		parts = append(parts, fmt.Sprintf("✅ %s reachable", d.name))
	}
	for _, m := range h.monitors {
		if !m.IsHealthy() {
			healthy = false
		}
		parts = append(parts, m.GetStatusSummary())
	}
	return strings.Join(parts, "; "), healthy
}
