package http

import (
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
)

// ResourceTag is the compact form embedded in other responses.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Type:      string(r.Type),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

type ListResourcesRequest struct {
	request.ListParams
	Type       string `form:"type" binding:"omitempty,oneof=simulator conference_room"`
	ActiveOnly bool   `form:"active_only"`
}

type CreateRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=simulator conference_room"`
}
