package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/auth"
	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// CorrelationHeader carries the client's idempotency token for create calls.
const CorrelationHeader = "X-Correlation-ID"

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

// ActorFrom builds the booking actor from the authenticated request.
func ActorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: auth.GetUserID(c),
		Email:  auth.GetUserEmail(c),
		Staff:  auth.IsStaff(c),
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	filter, err := req.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	actor := ActorFrom(c)
	bookings, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b, actor.Staff)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	actor := ActorFrom(c)
	b, err := h.service.Get(c.Request.Context(), actor, uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, actor.Staff))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	date, err := slot.ParseDate(body.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	iv, err := slot.Parse(body.StartTime, body.EndTime)
	if err != nil {
		response.Error(c, err)
		return
	}

	actor := ActorFrom(c)
	b, err := h.service.Create(c.Request.Context(), actor, booking.CreateRequest{
		ResourceID:          body.ResourceID,
		Date:                date,
		Interval:            iv,
		DeclaredPlayerCount: body.PlayerCount,
		Notes:               body.Notes,
		OwnerEmail:          body.OwnerEmail,
		CorrelationID:       c.GetHeader(CorrelationHeader),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b, actor.Staff))
}

func (h *Handler) Transition(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	actor := ActorFrom(c)
	b, err := h.service.Transition(c.Request.Context(), actor, uri.ID, booking.TransitionInput{
		Action:            booking.Action(body.Action),
		ExternalBookingID: body.ExternalBookingID,
		Reason:            body.Reason,
		ExpectedVersion:   body.ExpectedVersion,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, actor.Staff))
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body UpdateNotesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.UpdateNotes(c.Request.Context(), ActorFrom(c), uri.ID, booking.NotesUpdate{
		Notes:           body.Notes,
		StaffNotes:      body.StaffNotes,
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, true))
}

func (h *Handler) Settle(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.SettleFees(c.Request.Context(), ActorFrom(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b, true))
}

// Fee returns the quote a front desk would show for the booking.
func (h *Handler) Fee(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, view, err := h.service.Fee(c.Request.Context(), ActorFrom(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewFeeResponse(b, view))
}
