package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Trackman-Secret"

type Handler struct {
	importer *trackman.Importer
	secret   string
}

func NewHandler(importer *trackman.Importer, secret string) *Handler {
	return &Handler{importer: importer, secret: secret}
}

// RequireSecret rejects webhook calls without the shared secret. An empty
// configured secret disables the webhook.
func (h *Handler) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(SecretHeader)
		if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Error: "invalid webhook secret",
				Kind:  apperror.KindForbidden,
			})
			return
		}
		c.Next()
	}
}

func (h *Handler) Webhook(c *gin.Context) {
	var body trackman.ExternalBooking
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	res, err := h.importer.Import(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, bookingHttp.NewBookingResponse(res.Booking, true))
}
