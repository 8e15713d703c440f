package http

import (
	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

type SeatRequest struct {
	Role  string `json:"role" binding:"required,oneof=member guest"`
	Email string `json:"email" binding:"omitempty,email"`
	Name  string `json:"name"`
}

type ComposeRequest struct {
	HostEmail       string        `json:"host_email" binding:"required,email"`
	ResourceID      string        `json:"resource_id" binding:"required,uuid"`
	Date            string        `json:"date" binding:"required"`
	StartTime       string        `json:"start_time" binding:"required"`
	DurationMinutes int           `json:"duration_minutes" binding:"required,min=15"`
	PlayerCount     int           `json:"player_count" binding:"required,min=1"`
	Seats           []SeatRequest `json:"seats" binding:"omitempty,dive"`
	Notes           string        `json:"notes"`
}

// ToRequest parses the date and time fields.
func (r *ComposeRequest) ToRequest() (composer.Request, error) {
	date, err := slot.ParseDate(r.Date)
	if err != nil {
		return composer.Request{}, err
	}
	start, err := slot.ParseClock(r.StartTime)
	if err != nil {
		return composer.Request{}, err
	}
	iv, err := slot.FromDuration(start, r.DurationMinutes)
	if err != nil {
		return composer.Request{}, err
	}
	seats := make([]composer.SeatRequest, len(r.Seats))
	for i, s := range r.Seats {
		seats[i] = composer.SeatRequest{Role: booking.ParticipantRole(s.Role), Email: s.Email, Name: s.Name}
	}
	return composer.Request{
		HostEmail:           r.HostEmail,
		ResourceID:          r.ResourceID,
		Date:                date,
		Interval:            iv,
		DeclaredPlayerCount: r.PlayerCount,
		Seats:               seats,
		Notes:               r.Notes,
	}, nil
}

type FinalizeRequest struct {
	ComposeRequest
	ExternalBookingID string `json:"external_booking_id"`
}

type LineResponse struct {
	Tag         string `json:"tag"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Placeholder bool   `json:"placeholder"`
}

type ComposeResponse struct {
	Notes       string         `json:"notes"`
	Lines       []LineResponse `json:"lines"`
	Unfilled    int            `json:"unfilled"`
	ResourceID  string         `json:"resource_id"`
	Date        string         `json:"date"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	PlayerCount int            `json:"player_count"`
}

func NewComposeResponse(c *composer.Composition) ComposeResponse {
	lines := make([]LineResponse, len(c.Notes.Lines))
	for i, l := range c.Notes.Lines {
		lines[i] = LineResponse{
			Tag:         string(l.Tag),
			Email:       l.Email,
			FirstName:   l.First,
			LastName:    l.Last,
			Placeholder: l.Placeholder(),
		}
	}
	return ComposeResponse{
		Notes:       c.Notes.String(),
		Lines:       lines,
		Unfilled:    c.Notes.Unfilled(),
		ResourceID:  c.Draft.ResourceID,
		Date:        slot.FormatDate(c.Draft.Date),
		StartTime:   slot.FormatClock(c.Draft.Interval.Start),
		EndTime:     slot.FormatClock(c.Draft.Interval.End),
		PlayerCount: c.Draft.DeclaredPlayerCount,
	}
}
