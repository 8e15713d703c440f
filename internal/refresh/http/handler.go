package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/bay-booking-backend/internal/refresh"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type SummarySource interface {
	Current() (refresh.Summary, error)
	Refresh(ctx context.Context) (refresh.Summary, error)
}

type SummaryResponse struct {
	Date                string    `json:"date"`
	Pending             int       `json:"pending"`
	AwaitingLinkage     int       `json:"awaiting_linkage"`
	CancellationPending int       `json:"cancellation_pending"`
	UnmatchedToday      int       `json:"unmatched_today"`
	RefreshedAt         time.Time `json:"refreshed_at"`
}

type Handler struct {
	source SummarySource
}

func NewHandler(source SummarySource) *Handler {
	return &Handler{source: source}
}

// Summary serves the last snapshot, computing one if the poller has not run yet.
func (h *Handler) Summary(c *gin.Context) {
	s, err := h.source.Current()
	if errors.Is(err, refresh.ErrNotReady) {
		s, err = h.source.Refresh(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{
		Date:                slot.FormatDate(s.Date),
		Pending:             s.Pending,
		AwaitingLinkage:     s.AwaitingLinkage,
		CancellationPending: s.CancellationPending,
		UnmatchedToday:      s.UnmatchedToday,
		RefreshedAt:         s.RefreshedAt,
	})
}
