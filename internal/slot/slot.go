// Package slot holds the minute arithmetic behind the booking grid.
// Times of day are integer minutes since local midnight; intervals are half-open.
package slot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

const (
	// Granularity is the grid step in minutes.
	Granularity = 15
	// DayMinutes is the exclusive upper bound of a time of day.
	DayMinutes = 24 * 60
	// OpenMinute is the start of the first bookable slot (08:00).
	OpenMinute = 8 * 60
	// LastSlotStart is the start of the last bookable slot (21:45).
	LastSlotStart = 21*60 + 45
	// CloseMinute is the end of the operating window.
	CloseMinute = LastSlotStart + Granularity
)

var (
	ErrInvalidClock    = apperror.Validation("time of day must be HH:MM")
	ErrInvalidInterval = apperror.Validation("end time must be after start time")
	ErrOutOfDay        = apperror.Validation("time is outside the calendar day")
	ErrUnaligned       = apperror.Validation("times must fall on the 15-minute grid")
	ErrOutsideHours    = apperror.Validation("booking is outside operating hours")
)

// Interval is a half-open [Start, End) range of minutes within one day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New validates and builds an interval.
func New(start, end int) (Interval, error) {
	if start < 0 || end > DayMinutes {
		return Interval{}, ErrOutOfDay
	}
	if end <= start {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// FromDuration builds [start, start+minutes).
func FromDuration(start, minutes int) (Interval, error) {
	return New(start, start+minutes)
}

// Parse builds an interval from two "HH:MM" strings.
func Parse(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return New(s, e)
}

// Duration in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i, o)
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

// Aligned reports whether both ends fall on the grid.
func (i Interval) Aligned() bool {
	return i.Start%Granularity == 0 && i.End%Granularity == 0
}

// WithinOperatingHours reports whether i fits the bookable window.
func (i Interval) WithinOperatingHours() bool {
	return OperatingWindow().Contains(i)
}

func (i Interval) String() string {
	return FormatClock(i.Start) + "-" + FormatClock(i.End)
}

// Overlaps uses a.start < b.end && b.start < a.end; touching intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// OperatingWindow is [08:00, 22:00).
func OperatingWindow() Interval {
	return Interval{Start: OpenMinute, End: CloseMinute}
}

// Grid returns every 15-minute slot of the operating window, in order.
func Grid() []Interval {
	slots := make([]Interval, 0, (CloseMinute-OpenMinute)/Granularity)
	for m := OpenMinute; m <= LastSlotStart; m += Granularity {
		slots = append(slots, Interval{Start: m, End: m + Granularity})
	}
	return slots
}

// ParseClock converts "HH:MM" (or "HH:MM:SS", seconds ignored) to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidClock
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, ErrInvalidClock
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidClock
	}
	total := h*60 + m
	if total > DayMinutes {
		return 0, ErrInvalidClock
	}
	return total, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
