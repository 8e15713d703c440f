package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/fee", h.Fee)
		group.POST("", h.Create)
		group.POST("/:id/transitions", h.Transition)
	}

	// === Staff Routes ===
	staff := group.Group("", staffMiddleware)
	{
		staff.PATCH("/:id/notes", h.UpdateNotes)
		staff.POST("/:id/settle", h.Settle)
	}
}
