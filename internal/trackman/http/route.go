package http

import "github.com/gin-gonic/gin"

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("/trackman/webhook", h.RequireSecret(), h.Webhook)
}
