package http

import "github.com/gin-gonic/gin"

// Register attaches suggestion routes to the given router group.
func (h *Handler) Register(rg gin.IRouter) {
	rg.POST("/suggestions", h.suggest)
	rg.GET("/suggestions/options", h.options)
}
