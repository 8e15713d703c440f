package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
)

type Handler struct {
	service composer.Service
}

func NewHandler(service composer.Service) *Handler {
	return &Handler{service: service}
}

// Compose previews the notes text staff paste into the external system.
func (h *Handler) Compose(c *gin.Context) {
	var body ComposeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		response.Error(c, err)
		return
	}

	comp, err := h.service.Compose(c.Request.Context(), bookingHttp.ActorFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewComposeResponse(comp))
}

func (h *Handler) Finalize(c *gin.Context) {
	var body FinalizeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.Finalize(c.Request.Context(), bookingHttp.ActorFrom(c), composer.FinalizeRequest{
		Request:           req,
		ExternalBookingID: body.ExternalBookingID,
		CorrelationID:     c.GetHeader(bookingHttp.CorrelationHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingHttp.NewBookingResponse(b, true))
}
