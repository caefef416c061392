package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DeepSeek  string    `json:"deepseek"`
	Cache     string    `json:"cache"`
}

type HealthHandler struct {
	serviceName   string
	version       string
	apiConfigured bool
	cache         Pinger
}

// NewHealthHandler creates a health handler. cache may be nil when result
// caching is disabled.
func NewHealthHandler(serviceName, version string, apiConfigured bool, cache Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName:   serviceName,
		version:       version,
		apiConfigured: apiConfigured,
		cache:         cache,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	deepSeek := "missing"
	if h.apiConfigured {
		deepSeek = "configured"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.cache.Ping(pingCtx); err != nil {
			cacheStatus = "down"
		} else {
			cacheStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DeepSeek:  deepSeek,
		Cache:     cacheStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
