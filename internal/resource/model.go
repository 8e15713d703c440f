package resource

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName   = apperror.Validation("name cannot be empty")
	ErrInvalidType = apperror.Validation("resource type must be simulator or conference_room")
	ErrInactive    = apperror.Validation("resource is deactivated")
)

// Type is the kind of physical unit.
type Type string

const (
	TypeSimulator      Type = "simulator"
	TypeConferenceRoom Type = "conference_room"
)

// Valid reports whether t is a known resource type.
func (t Type) Valid() bool {
	return t == TypeSimulator || t == TypeConferenceRoom
}

// Resource represents a bookable unit (a simulator bay or a conference room).
// Resources are never deleted, only deactivated.
type Resource struct {
	ID        string
	Name      string
	Type      Type
	IsActive  bool
	CreatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Type       Type
	ActiveOnly bool
	Page       int
	PageSize   int
	SortOrder  string
}
