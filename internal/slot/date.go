package slot

import (
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

var ErrInvalidDate = apperror.Validation("date must be YYYY-MM-DD")

// Date normalizes t to its calendar date, represented as midnight UTC.
// Calendar dates are compared with ==-safe values everywhere in the engine.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of instant t as seen in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return Date(t.In(loc))
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Date(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether two values denote the same calendar date.
func SameDate(a, b time.Time) bool {
	return Date(a).Equal(Date(b))
}
