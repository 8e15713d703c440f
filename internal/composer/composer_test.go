package composer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/booking"
	"github.com/nekogravitycat/bay-booking-backend/internal/composer"
	"github.com/nekogravitycat/bay-booking-backend/internal/member"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

var (
	janeDoe   = &member.Member{Email: "Jane@Club.com", Name: "Jane Doe", Tier: "Social"}
	johnSmith = &member.Member{Email: "john@club.com", Name: "John  Smith", Tier: "Core"}
)

func draft(declared int, participants ...composer.Participant) composer.Draft {
	return composer.Draft{
		Host:                janeDoe,
		ResourceID:          "bay-1",
		Date:                time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Interval:            slot.Interval{Start: 600, End: 660},
		DeclaredPlayerCount: declared,
		Participants:        participants,
	}
}

func TestComposeCanonicalText(t *testing.T) {
	notes, err := composer.Compose(draft(3, composer.Participant{Role: booking.RoleMember, Member: johnSmith}))
	require.NoError(t, err)

	want := "M|jane@club.com|Jane|Doe\n" +
		"M|john@club.com|John|Smith\n" +
		"G|none|Guest|3"
	assert.Equal(t, want, notes.String())
	assert.Equal(t, 1, notes.Unfilled())
}

func TestComposeRoundTrip(t *testing.T) {
	d := draft(5,
		composer.Participant{Role: booking.RoleMember, Member: johnSmith},
		composer.Participant{Role: booking.RoleGuest, Name: "Walk In"},
		composer.Participant{Role: booking.RoleGuest},
	)
	notes, err := composer.Compose(d)
	require.NoError(t, err)

	text := notes.String()
	assert.Len(t, strings.Split(text, "\n"), d.DeclaredPlayerCount)
	assert.True(t, strings.HasPrefix(text, "M|jane@club.com|"))

	parsed, err := composer.ParseNotes(text)
	require.NoError(t, err)
	require.Len(t, parsed.Lines, 5)

	tags := make([]composer.Tag, len(parsed.Lines))
	names := make([]string, len(parsed.Lines))
	for i, l := range parsed.Lines {
		tags[i] = l.Tag
		names[i] = l.Name()
	}
	assert.Equal(t, []composer.Tag{composer.TagMember, composer.TagMember, composer.TagGuest, composer.TagGuest, composer.TagGuest}, tags)
	assert.Equal(t, []string{"Jane Doe", "John Smith", "Walk In", "Guest 4", "Guest 5"}, names)
	assert.Equal(t, notes, parsed)
	assert.Equal(t, 2, parsed.Unfilled())
}

func TestComposeSingleSeat(t *testing.T) {
	notes, err := composer.Compose(draft(1))
	require.NoError(t, err)
	assert.Equal(t, "M|jane@club.com|Jane|Doe", notes.String())
}

func TestComposeStripsDelimiters(t *testing.T) {
	notes, err := composer.Compose(draft(2, composer.Participant{Role: booking.RoleGuest, Name: "Pat|Lee\nJr"}))
	require.NoError(t, err)
	assert.Equal(t, "G|none|Pat|Lee Jr", notes.Lines[1].String())
}

func TestComposeValidation(t *testing.T) {
	noHost := draft(2)
	noHost.Host = nil
	noResource := draft(2)
	noResource.ResourceID = ""
	noDate := draft(2)
	noDate.Date = time.Time{}
	noTime := draft(2)
	noTime.Interval = slot.Interval{}
	unaligned := draft(2)
	unaligned.Interval = slot.Interval{Start: 605, End: 665}

	tests := []struct {
		name  string
		draft composer.Draft
		want  error
	}{
		{name: "host", draft: noHost, want: composer.ErrHostRequired},
		{name: "resource", draft: noResource, want: composer.ErrResourceRequired},
		{name: "date", draft: noDate, want: composer.ErrDateRequired},
		{name: "time", draft: noTime, want: composer.ErrTimeRequired},
		{name: "unaligned", draft: unaligned, want: slot.ErrUnaligned},
		{name: "zero players", draft: draft(0), want: composer.ErrInvalidPlayerCount},
		{name: "too many slots", draft: draft(2, composer.Participant{Role: booking.RoleGuest}, composer.Participant{Role: booking.RoleGuest}), want: composer.ErrTooManyPlayers},
		{name: "unresolved member", draft: draft(2, composer.Participant{Role: booking.RoleMember}), want: composer.ErrUnresolvedMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := composer.Compose(tt.draft)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseNotesRejectsMalformedLines(t *testing.T) {
	for _, text := range []string{
		"",
		"M|jane@club.com|Jane",
		"X|none|Guest|1",
		"M|none|Jane|Doe",
	} {
		_, err := composer.ParseNotes(text)
		assert.ErrorIs(t, err, composer.ErrMalformedNotes, text)
	}
}

func TestParseNotesToleratesWhitespace(t *testing.T) {
	notes, err := composer.ParseNotes("  m|JANE@club.com|Jane|Doe \r\n\n g|NONE|Guest|2\n")
	require.NoError(t, err)
	require.Len(t, notes.Lines, 2)
	assert.Equal(t, composer.Line{Tag: composer.TagMember, Email: "jane@club.com", First: "Jane", Last: "Doe"}, notes.Lines[0])
	assert.True(t, notes.Lines[1].Placeholder())
}

func TestDraftRoster(t *testing.T) {
	d := draft(4,
		composer.Participant{Role: booking.RoleGuest},
		composer.Participant{Role: booking.RoleMember, Member: johnSmith},
	)
	roster := d.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, 0, roster[0].Seat)
	assert.Equal(t, "jane@club.com", roster[0].Email)
	assert.Equal(t, 2, roster[1].Seat)
	assert.Equal(t, booking.RoleMember, roster[1].Role)
}
