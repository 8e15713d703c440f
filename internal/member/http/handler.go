package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
)

type Handler struct {
	directory member.Directory
}

func NewHandler(directory member.Directory) *Handler {
	return &Handler{directory: directory}
}

// Search backs the staff assignment picker.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	members, err := h.directory.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]MemberResponse, len(members))
	for i, m := range members {
		items[i] = NewMemberResponse(m)
	}
	c.JSON(http.StatusOK, items)
}
