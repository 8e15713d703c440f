// Package composer builds staff-initiated bookings together with the notes
// record that mirrors them into the external scheduling system.
package composer

import (
	"strings"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

var (
	ErrHostRequired       = apperror.Validation("a host member is required")
	ErrResourceRequired   = apperror.Validation("resource is required")
	ErrDateRequired       = apperror.Validation("date is required")
	ErrTimeRequired       = apperror.Validation("start time and duration are required")
	ErrUnresolvedMember   = apperror.Validation("every member slot must be resolved to a member")
	ErrTooManyPlayers     = apperror.Validation("more participants than declared seats")
	ErrInvalidPlayerCount = booking.ErrInvalidPlayerCount
)

// Participant fills one non-host seat. Member seats carry the resolved
// directory entry; a guest may be left unnamed.
type Participant struct {
	Role   booking.ParticipantRole
	Member *member.Member
	Name   string
}

// Draft is a complete manual booking before the external id is known.
type Draft struct {
	Host                *member.Member
	ResourceID          string
	Date                time.Time
	Interval            slot.Interval
	DeclaredPlayerCount int
	Participants        []Participant
	Notes               string
}

// Validate checks the draft without touching storage.
func (d Draft) Validate() error {
	switch {
	case d.Host == nil || d.Host.Email == "":
		return ErrHostRequired
	case d.ResourceID == "":
		return ErrResourceRequired
	case d.Date.IsZero():
		return ErrDateRequired
	case d.Interval == (slot.Interval{}):
		return ErrTimeRequired
	}
	if _, err := slot.New(d.Interval.Start, d.Interval.End); err != nil {
		return err
	}
	if !d.Interval.Aligned() {
		return slot.ErrUnaligned
	}
	if !d.Interval.WithinOperatingHours() {
		return slot.ErrOutsideHours
	}
	if d.DeclaredPlayerCount < 1 || d.DeclaredPlayerCount > booking.MaxPlayers {
		return ErrInvalidPlayerCount
	}
	if len(d.Participants) > d.DeclaredPlayerCount-1 {
		return ErrTooManyPlayers
	}
	for _, p := range d.Participants {
		if p.Role == booking.RoleMember && (p.Member == nil || p.Member.Email == "") {
			return ErrUnresolvedMember
		}
	}
	return nil
}

// Compose renders the notes record: the host, then each participant, then a
// placeholder for every seat still open. It always has DeclaredPlayerCount lines.
func Compose(d Draft) (Notes, error) {
	if err := d.Validate(); err != nil {
		return Notes{}, err
	}

	lines := make([]Line, 0, d.DeclaredPlayerCount)
	lines = append(lines, memberLine(d.Host))
	for _, p := range d.Participants {
		switch {
		case p.Role == booking.RoleMember:
			lines = append(lines, memberLine(p.Member))
		case clean(p.Name) != "":
			first, last := splitName(clean(p.Name))
			lines = append(lines, Line{Tag: TagGuest, First: first, Last: last})
		default:
			lines = append(lines, placeholder(len(lines)+1))
		}
	}
	for len(lines) < d.DeclaredPlayerCount {
		lines = append(lines, placeholder(len(lines)+1))
	}
	return Notes{Lines: lines}, nil
}

func memberLine(m *member.Member) Line {
	first, last := splitName(clean(m.Name))
	return Line{Tag: TagMember, Email: strings.ToLower(strings.TrimSpace(m.Email)), First: first, Last: last}
}

// Roster lists the named participants of the draft, host in seat 0. Unnamed
// guests leave their seat open.
func (d Draft) Roster() []booking.Participant {
	host := booking.KnownMember{MemberEmail: d.Host.Email, Name: d.Host.Name, MemberTier: d.Host.Tier}
	roster := []booking.Participant{booking.HostParticipant(host)}
	for i, p := range d.Participants {
		seat := i + 1
		switch {
		case p.Role == booking.RoleMember:
			roster = append(roster, booking.Participant{
				Seat:  seat,
				Role:  booking.RoleMember,
				Email: p.Member.Email,
				Name:  p.Member.Name,
				Tier:  p.Member.Tier,
			})
		case clean(p.Name) != "":
			roster = append(roster, booking.Participant{Seat: seat, Role: booking.RoleGuest, Name: clean(p.Name)})
		}
	}
	return roster
}
