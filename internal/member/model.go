package member

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound   = apperror.New(http.StatusNotFound, "member not found")
	ErrEmptyQuery = apperror.Validation("search query is required")
)

const collaborator = "member directory"

// Member is a directory entry.
type Member struct {
	ID        string
	Email     string
	Name      string
	Tier      string
	IsActive  bool
	CreatedAt time.Time
}
