// Package trackman adapts bookings from the external bay scheduling system.
// Owner heuristics live here and nowhere else: past the import boundary a
// booking's identity is structural.
package trackman

import (
	"strings"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
)

// SentinelEmail is the address the external system writes for unmatched customers.
const SentinelEmail = "unmatched@trackman.local"

// UnknownName is the display name of an unmatched import.
const UnknownName = "Unknown (import)"

var syntheticDomains = []string{
	"trackman.local",
	"unmatched.local",
	"visitor.local",
	"guest.local",
}

// channelPrefixes mark bookings that came in through a third-party channel.
var channelPrefixes = []string{
	"golfnow-",
	"classpass-",
	"teesnap-",
	"unmatched-",
}

// IsUnmatched reports whether an imported owner lacks a usable member identity.
func IsUnmatched(email, name string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || email == SentinelEmail {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(name), UnknownName) {
		return true
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return true
	}
	for _, d := range syntheticDomains {
		if domain == d {
			return true
		}
	}
	for _, p := range channelPrefixes {
		if strings.HasPrefix(local, p) {
			return true
		}
	}
	return false
}

// ClassifyOwner turns imported owner fields into an identity. A plausible
// member is returned as KnownMember without a tier; the importer confirms it
// against the directory.
func ClassifyOwner(email, name, notes string) booking.OwnerIdentity {
	raw := booking.RawImport{
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
		Notes: notes,
	}
	if IsUnmatched(email, name) {
		return booking.UnknownImport{Raw: raw}
	}
	return booking.KnownMember{MemberEmail: strings.ToLower(raw.Email), Name: raw.Name}
}
