package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/reconcile", authMiddleware, staffMiddleware)
	{
		group.GET("/unmatched", h.Unmatched)
		group.GET("/:id/candidates", h.Candidates)
		group.POST("/:id/assign", h.Assign)
		group.POST("/:id/unassign", h.Unassign)
	}
}
