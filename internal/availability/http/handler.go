package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type Handler struct {
	service   availability.Service
	resources resource.Service
}

func NewHandler(service availability.Service, resources resource.Service) *Handler {
	return &Handler{service: service, resources: resources}
}

// Grid resolves the day for the requested resources, or every active one.
func (h *Handler) Grid(c *gin.Context) {
	var req GridRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := slot.ParseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()

	ids := req.ResourceIDs
	if len(ids) == 0 {
		list, _, err := h.resources.List(ctx, resource.Filter{ActiveOnly: true, Page: 1, PageSize: 100, SortOrder: "ASC"})
		if err != nil {
			response.Error(c, err)
			return
		}
		for _, r := range list {
			ids = append(ids, r.ID)
		}
	}

	rows, err := h.service.Grid(ctx, date, ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewGridResponse(date, rows))
}

func (h *Handler) ListClosures(c *gin.Context) {
	var req DateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := slot.ParseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	closures, err := h.service.ListClosures(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]ClosureResponse, len(closures))
	for i, cl := range closures {
		items[i] = NewClosureResponse(cl)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateClosure(c *gin.Context) {
	var body CreateClosureRequest
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

	closure, affected, err := h.service.CreateClosure(c.Request.Context(), availability.ClosureRequest{
		ResourceID: body.ResourceID,
		Date:       date,
		Interval:   iv,
		Title:      body.Title,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if affected == nil {
		affected = []string{}
	}
	c.JSON(http.StatusCreated, CreatedClosureResponse{Closure: NewClosureResponse(*closure), AffectedBookingIDs: affected})
}

func (h *Handler) DeleteClosure(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	if err := h.service.DeleteClosure(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBlocks(c *gin.Context) {
	var req DateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := slot.ParseDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	blocks, err := h.service.ListBlocks(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]BlockResponse, len(blocks))
	for i, b := range blocks {
		items[i] = NewBlockResponse(b)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateBlock(c *gin.Context) {
	var body CreateBlockRequest
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

	block, affected, err := h.service.CreateBlock(c.Request.Context(), availability.BlockRequest{
		ResourceID: body.ResourceID,
		Date:       date,
		Interval:   iv,
		Reason:     body.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if affected == nil {
		affected = []string{}
	}
	c.JSON(http.StatusCreated, CreatedBlockResponse{Block: NewBlockResponse(*block), AffectedBookingIDs: affected})
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	if err := h.service.DeleteBlock(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
