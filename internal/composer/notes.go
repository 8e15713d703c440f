package composer

import (
	"strconv"
	"strings"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

// Tag is the role column of a notes line.
type Tag string

const (
	TagMember Tag = "M"
	TagGuest  Tag = "G"
)

const (
	fieldSep = "|"
	noEmail  = "none"
	// placeholderFirst is the first-name column of an unfilled seat.
	placeholderFirst = "Guest"
)

var ErrMalformedNotes = apperror.Validation("notes must be lines of the form <M|G>|<email|none>|<first>|<last>")

// Line is one participant of the notes record.
type Line struct {
	Tag   Tag
	Email string // empty is written as "none"
	First string
	Last  string
}

// Name joins the name columns.
func (l Line) Name() string {
	return strings.TrimSpace(l.First + " " + l.Last)
}

// Placeholder reports whether the line stands for an unfilled seat.
func (l Line) Placeholder() bool {
	if l.Tag != TagGuest || l.Email != "" || l.First != placeholderFirst {
		return false
	}
	_, err := strconv.Atoi(l.Last)
	return err == nil
}

func (l Line) String() string {
	email := l.Email
	if email == "" {
		email = noEmail
	}
	return strings.Join([]string{string(l.Tag), email, clean(l.First), clean(l.Last)}, fieldSep)
}

func placeholder(position int) Line {
	return Line{Tag: TagGuest, First: placeholderFirst, Last: strconv.Itoa(position)}
}

// Notes is the record staff paste into the external system. The host is
// always the first line.
type Notes struct {
	Lines []Line
}

func (n Notes) String() string {
	out := make([]string, len(n.Lines))
	for i, l := range n.Lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

// Unfilled counts placeholder lines.
func (n Notes) Unfilled() int {
	c := 0
	for _, l := range n.Lines {
		if l.Placeholder() {
			c++
		}
	}
	return c
}

// ParseNotes reads a notes record back. Blank lines and surrounding
// whitespace are ignored.
func ParseNotes(text string) (Notes, error) {
	var n Notes
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, fieldSep)
		if len(fields) != 4 {
			return Notes{}, ErrMalformedNotes
		}
		l := Line{
			Tag:   Tag(strings.ToUpper(strings.TrimSpace(fields[0]))),
			Email: strings.ToLower(strings.TrimSpace(fields[1])),
			First: strings.TrimSpace(fields[2]),
			Last:  strings.TrimSpace(fields[3]),
		}
		if l.Email == noEmail {
			l.Email = ""
		}
		switch {
		case l.Tag != TagMember && l.Tag != TagGuest:
			return Notes{}, ErrMalformedNotes
		case l.Tag == TagMember && l.Email == "":
			return Notes{}, ErrMalformedNotes
		}
		n.Lines = append(n.Lines, l)
	}
	if len(n.Lines) == 0 {
		return Notes{}, ErrMalformedNotes
	}
	return n, nil
}

// splitName splits a display name at its first space.
func splitName(full string) (first, last string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ = strings.Cut(full, " ")
	return first, last
}

// clean keeps a column from breaking the line format.
func clean(s string) string {
	s = strings.NewReplacer(fieldSep, " ", "\n", " ", "\r", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
