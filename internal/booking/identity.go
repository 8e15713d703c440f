package booking

import "strings"

// IdentityKind is the stored discriminator of an OwnerIdentity.
type IdentityKind string

const (
	IdentityMember        IdentityKind = "member"
	IdentityGuest         IdentityKind = "guest"
	IdentityUnknownImport IdentityKind = "unknown_import"
)

// OwnerIdentity is who a booking belongs to. It is one of KnownMember,
// AnonymousGuest or UnknownImport.
type OwnerIdentity interface {
	Kind() IdentityKind
	Email() string
	DisplayName() string
	Tier() string
	isOwnerIdentity()
}

// KnownMember is a resolved directory member.
type KnownMember struct {
	MemberEmail string `json:"email"`
	Name        string `json:"name"`
	MemberTier  string `json:"tier"`
}

func (KnownMember) Kind() IdentityKind    { return IdentityMember }
func (m KnownMember) Email() string       { return strings.ToLower(strings.TrimSpace(m.MemberEmail)) }
func (m KnownMember) DisplayName() string { return m.Name }
func (m KnownMember) Tier() string        { return m.MemberTier }
func (KnownMember) isOwnerIdentity()      {}

// AnonymousGuest is a walk-in staff chose not to link to a member.
type AnonymousGuest struct {
	Name string `json:"name"`
}

func (AnonymousGuest) Kind() IdentityKind    { return IdentityGuest }
func (AnonymousGuest) Email() string         { return "" }
func (g AnonymousGuest) DisplayName() string { return g.Name }
func (AnonymousGuest) Tier() string          { return "" }
func (AnonymousGuest) isOwnerIdentity()      {}

// UnknownImport is an imported booking whose owner could not be matched.
type UnknownImport struct {
	Raw RawImport `json:"raw"`
}

func (UnknownImport) Kind() IdentityKind    { return IdentityUnknownImport }
func (u UnknownImport) Email() string       { return u.Raw.Email }
func (u UnknownImport) DisplayName() string { return u.Raw.Name }
func (UnknownImport) Tier() string          { return "" }
func (UnknownImport) isOwnerIdentity()      {}

// restoreIdentity rebuilds an OwnerIdentity from its stored columns.
func restoreIdentity(kind IdentityKind, email, name, tier string, raw RawImport) OwnerIdentity {
	switch kind {
	case IdentityMember:
		return KnownMember{MemberEmail: email, Name: name, MemberTier: tier}
	case IdentityGuest:
		return AnonymousGuest{Name: name}
	default:
		return UnknownImport{Raw: raw}
	}
}
