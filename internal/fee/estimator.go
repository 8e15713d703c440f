// Package fee estimates what a booking owes. All arithmetic is in integer
// cents; conversion to dollars happens only at the display boundary.
package fee

import (
	"strings"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

var ErrMalformedInput = apperror.Validation("malformed fee input")

// Input is everything the estimate depends on.
type Input struct {
	Tier            string
	DurationMinutes int
	// UsedMinutesToday is the member's earlier usage on the same day, counted
	// against the daily allowance first.
	UsedMinutesToday     int
	DeclaredPlayerCount  int
	FilledPlayerCount    int
	GuestFeeCents        int64
	OverageCentsPerBlock int64
	OverageBlockMinutes  int
	TierAllowanceMinutes map[string]int
}

// EstimateCents is pure: identical inputs always give the identical amount.
func EstimateCents(in Input) (int64, error) {
	if in.DurationMinutes < 0 || in.UsedMinutesToday < 0 || in.DeclaredPlayerCount < 1 ||
		in.FilledPlayerCount < 0 || in.GuestFeeCents < 0 || in.OverageCentsPerBlock < 0 ||
		(in.OverageCentsPerBlock > 0 && in.OverageBlockMinutes <= 0) {
		return 0, ErrMalformedInput
	}
	return overageCents(in) + guestCents(in), nil
}

// OverageBlocks is the number of billed overage blocks; partial blocks round up.
func OverageBlocks(in Input) int {
	if in.OverageBlockMinutes <= 0 {
		return 0
	}
	allowance := allowanceFor(in.TierAllowanceMinutes, in.Tier)
	remaining := max(0, allowance-in.UsedMinutesToday)
	over := max(0, in.DurationMinutes-remaining)
	return (over + in.OverageBlockMinutes - 1) / in.OverageBlockMinutes
}

// allowanceFor matches the tier name case-insensitively; unknown tiers get none.
func allowanceFor(allowances map[string]int, tier string) int {
	tier = strings.TrimSpace(tier)
	if m, ok := allowances[tier]; ok {
		return m
	}
	for name, m := range allowances {
		if strings.EqualFold(strings.TrimSpace(name), tier) {
			return m
		}
	}
	return 0
}

// UnfilledGuestSeats counts seats beyond the host not yet matched to a participant.
func UnfilledGuestSeats(in Input) int {
	return max(0, min(in.DeclaredPlayerCount-1, in.DeclaredPlayerCount-in.FilledPlayerCount))
}

func overageCents(in Input) int64 {
	return int64(OverageBlocks(in)) * in.OverageCentsPerBlock
}

func guestCents(in Input) int64 {
	return int64(UnfilledGuestSeats(in)) * in.GuestFeeCents
}

// Source says where a quoted amount came from.
type Source string

const (
	SourcePaid          Source = "paid"
	SourceAuthoritative Source = "authoritative"
	SourceEstimate      Source = "estimate"
	SourceNone          Source = "none"
)

// QuoteInput is the booking state a quote is chosen from.
type QuoteInput struct {
	SnapshotPaid   bool
	TotalOwedCents int64
	// SameDay is true when the booking is today in the facility's timezone.
	SameDay  bool
	Estimate Input
}

type Quote struct {
	Cents  int64  `json:"cents"`
	Source Source `json:"source"`
}

// QuoteFor picks the amount to show. A paid snapshot always quotes zero; a
// recorded server total wins over the estimate, which is only a same-day fallback.
func QuoteFor(in QuoteInput) (Quote, error) {
	switch {
	case in.SnapshotPaid:
		return Quote{Cents: 0, Source: SourcePaid}, nil
	case in.TotalOwedCents > 0:
		return Quote{Cents: in.TotalOwedCents, Source: SourceAuthoritative}, nil
	case in.SameDay:
		cents, err := EstimateCents(in.Estimate)
		if err != nil {
			return Quote{}, err
		}
		return Quote{Cents: cents, Source: SourceEstimate}, nil
	default:
		return Quote{Cents: 0, Source: SourceNone}, nil
	}
}
