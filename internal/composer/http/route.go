package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/manual-bookings", authMiddleware, staffMiddleware)
	{
		group.POST("/compose", h.Compose)
		group.POST("/finalize", h.Finalize)
	}
}
