package http

import (
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type GridRequest struct {
	Date        string   `form:"date" binding:"required"`
	ResourceIDs []string `form:"resource_id" binding:"omitempty,dive,uuid"`
}

type DateRequest struct {
	Date string `form:"date" binding:"required"`
}

type CreateClosureRequest struct {
	ResourceID *string `json:"resource_id" binding:"omitempty,uuid"`
	Date       string  `json:"date" binding:"required"`
	StartTime  string  `json:"start_time" binding:"required"`
	EndTime    string  `json:"end_time" binding:"required"`
	Title      string  `json:"title" binding:"required"`
}

type CreateBlockRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

type CellResponse struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	State         string `json:"state"`
	Title         string `json:"title,omitempty"`
	Reason        string `json:"reason,omitempty"`
	SourceID      string `json:"source_id,omitempty"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type RowResponse struct {
	ResourceID string         `json:"resource_id"`
	Cells      []CellResponse `json:"cells"`
}

type GridResponse struct {
	Date string        `json:"date"`
	Rows []RowResponse `json:"rows"`
}

func NewGridResponse(date time.Time, rows []availability.Row) GridResponse {
	out := GridResponse{Date: slot.FormatDate(date), Rows: make([]RowResponse, len(rows))}
	for i, row := range rows {
		cells := make([]CellResponse, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = CellResponse{
				StartTime:     slot.FormatClock(cell.Slot.Start),
				EndTime:       slot.FormatClock(cell.Slot.End),
				State:         string(cell.State),
				Title:         cell.Title,
				Reason:        cell.Reason,
				SourceID:      cell.SourceID,
				ReservationID: cell.ReservationID,
			}
		}
		out.Rows[i] = RowResponse{ResourceID: row.ResourceID, Cells: cells}
	}
	return out
}

type ClosureResponse struct {
	ID         string    `json:"id"`
	ResourceID *string   `json:"resource_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewClosureResponse(c availability.Closure) ClosureResponse {
	return ClosureResponse{
		ID:         c.ID,
		ResourceID: c.ResourceID,
		Date:       slot.FormatDate(c.Date),
		StartTime:  slot.FormatClock(c.Interval.Start),
		EndTime:    slot.FormatClock(c.Interval.End),
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
	}
}

type BlockResponse struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewBlockResponse(b availability.Block) BlockResponse {
	return BlockResponse{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		Date:       slot.FormatDate(b.Date),
		StartTime:  slot.FormatClock(b.Interval.Start),
		EndTime:    slot.FormatClock(b.Interval.End),
		Reason:     b.Reason,
		CreatedAt:  b.CreatedAt,
	}
}

// CreatedClosureResponse lists bookings that now sit under the new closure.
// They are left untouched for staff to handle.
type CreatedClosureResponse struct {
	Closure            ClosureResponse `json:"closure"`
	AffectedBookingIDs []string        `json:"affected_booking_ids"`
}

type CreatedBlockResponse struct {
	Block              BlockResponse `json:"block"`
	AffectedBookingIDs []string      `json:"affected_booking_ids"`
}
