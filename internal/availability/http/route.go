package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the grid, closure and block routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	g.GET("/availability", authMiddleware, h.Grid)

	closures := g.Group("/closures", authMiddleware)
	{
		closures.GET("", h.ListClosures)
		closures.POST("", staffMiddleware, h.CreateClosure)
		closures.DELETE("/:id", staffMiddleware, h.DeleteClosure)
	}

	blocks := g.Group("/blocks", authMiddleware)
	{
		blocks.GET("", h.ListBlocks)
		blocks.POST("", staffMiddleware, h.CreateBlock)
		blocks.DELETE("/:id", staffMiddleware, h.DeleteBlock)
	}
}
