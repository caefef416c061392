package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/service"
)

// MetricsHandler exposes the suggestion pipeline counters as JSON.
func MetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, service.GetMetrics().Snapshot())
}
