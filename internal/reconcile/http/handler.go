package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	bookingHttp "github.com/nekogravitycat/bay-booking-backend/internal/booking/http"
	memberHttp "github.com/nekogravitycat/bay-booking-backend/internal/member/http"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/reconcile"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type Handler struct {
	service reconcile.Service
}

func NewHandler(service reconcile.Service) *Handler {
	return &Handler{service: service}
}

// Unmatched lists the day's imported bookings still waiting for an owner.
func (h *Handler) Unmatched(c *gin.Context) {
	var req UnmatchedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := slot.ParseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	list, err := h.service.ListUnmatched(c.Request.Context(), bookingHttp.ActorFrom(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]bookingHttp.BookingResponse, len(list))
	for i, b := range list {
		items[i] = bookingHttp.NewBookingResponse(b, true)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Candidates(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var req CandidatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	members, err := h.service.Candidates(c.Request.Context(), bookingHttp.ActorFrom(c), uri.ID, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]memberHttp.MemberResponse, len(members))
	for i, m := range members {
		items[i] = memberHttp.NewMemberResponse(m)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Assign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body AssignRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Assign(c.Request.Context(), bookingHttp.ActorFrom(c), reconcile.AssignRequest{
		BookingID:       uri.ID,
		Seat:            body.Seat,
		MemberEmail:     body.MemberEmail,
		Guest:           body.Guest,
		GuestName:       body.GuestName,
		Acknowledge:     body.Acknowledge,
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingHttp.NewBookingResponse(b, true))
}

func (h *Handler) Unassign(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body UnassignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	b, err := h.service.Unassign(c.Request.Context(), bookingHttp.ActorFrom(c), uri.ID, body.ExpectedVersion)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingHttp.NewBookingResponse(b, true))
}
