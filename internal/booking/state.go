package booking

import (
	"strings"
	"time"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

// Action is a command accepted by the state machine.
type Action string

const (
	ActionApprove        Action = "approve"
	ActionConfirm        Action = "confirm"
	ActionDecline        Action = "decline"
	ActionWithdraw       Action = "withdraw"
	ActionCheckIn        Action = "check_in"
	ActionNoShow         Action = "no_show"
	ActionRequestCancel  Action = "request_cancel"
	ActionCompleteCancel Action = "complete_cancel"
)

var Actions = []Action{
	ActionApprove,
	ActionConfirm,
	ActionDecline,
	ActionWithdraw,
	ActionCheckIn,
	ActionNoShow,
	ActionRequestCancel,
	ActionCompleteCancel,
}

// Effect is the collaborator call a transition requires before it may commit.
type Effect int

const (
	EffectNone Effect = iota
	EffectNotifyCancellation
	EffectReverseCharges
)

type edge struct {
	from   Status
	action Action
}

type rule struct {
	to        Status
	staffOnly bool
	effect    Effect
}

// transitions is the full table. Pairs not listed are invalid.
var transitions = map[edge]rule{
	{StatusPending, ActionApprove}:                    {to: StatusApproved, staffOnly: true},
	{StatusPending, ActionConfirm}:                    {to: StatusConfirmed, staffOnly: true},
	{StatusApproved, ActionConfirm}:                   {to: StatusConfirmed, staffOnly: true},
	{StatusPending, ActionDecline}:                    {to: StatusDeclined, staffOnly: true},
	{StatusApproved, ActionDecline}:                   {to: StatusDeclined, staffOnly: true},
	{StatusPending, ActionWithdraw}:                   {to: StatusCancelled},
	{StatusConfirmed, ActionCheckIn}:                  {to: StatusAttended, staffOnly: true},
	{StatusAttended, ActionCheckIn}:                   {to: StatusAttended, staffOnly: true},
	{StatusConfirmed, ActionNoShow}:                   {to: StatusNoShow, staffOnly: true},
	{StatusConfirmed, ActionRequestCancel}:            {to: StatusCancellationPending, effect: EffectNotifyCancellation},
	{StatusCancellationPending, ActionCompleteCancel}: {to: StatusCancelled, staffOnly: true, effect: EffectReverseCharges},
}

// Next returns the status reached by applying action in current, or an
// InvalidTransition error. It ignores guards that depend on the caller or clock.
func Next(current Status, action Action) (Status, error) {
	r, ok := transitions[edge{current, action}]
	if !ok {
		return current, apperror.InvalidTransition(string(current), string(action))
	}
	return r.to, nil
}

// TransitionInput carries the optional fields some actions need.
type TransitionInput struct {
	Action            Action
	ExternalBookingID string
	Reason            string
	// ExpectedVersion is compared against the stored version when non-zero.
	ExpectedVersion int
}

// Plan is the outcome of evaluating a transition against the current record.
type Plan struct {
	From   Status
	To     Status
	Effect Effect
	// Noop is set for repeated check-ins.
	Noop bool
	// Places is set when the target status needs a fresh placement check.
	Places bool
	// ExternalBookingID is the linkage to record on confirm.
	ExternalBookingID string
}

// Evaluate checks a transition against b without mutating it. today is the
// facility's current calendar date.
func Evaluate(b *Booking, in TransitionInput, actor Actor, today time.Time) (Plan, error) {
	r, ok := transitions[edge{b.Status, in.Action}]
	if !ok {
		return Plan{}, apperror.InvalidTransition(string(b.Status), string(in.Action))
	}
	if in.ExpectedVersion != 0 && in.ExpectedVersion != b.Version {
		return Plan{}, apperror.StaleState(string(b.Status), b.Version)
	}
	if r.staffOnly && !actor.Staff {
		return Plan{}, ErrPermissionDenied
	}
	if !r.staffOnly && !actor.Staff && !b.OwnedBy(actor.Email) {
		return Plan{}, ErrPermissionDenied
	}

	plan := Plan{
		From:   b.Status,
		To:     r.to,
		Effect: r.effect,
		Noop:   b.Status == r.to,
		Places: r.to.Placed() && !b.Status.Placed(),
	}

	switch in.Action {
	case ActionConfirm:
		id, err := linkage(b, in.ExternalBookingID)
		if err != nil {
			return Plan{}, err
		}
		plan.ExternalBookingID = id
		// A confirmed record must have passed a placement check under the current exclusions.
		plan.Places = true
	case ActionDecline:
		if strings.TrimSpace(in.Reason) == "" {
			return Plan{}, ErrDeclineReason
		}
	case ActionCheckIn:
		if !plan.Noop && !slot.SameDate(b.Date, today) {
			return Plan{}, ErrCheckInNotToday
		}
	case ActionNoShow:
		if slot.Date(today).Before(slot.Date(b.Date)) {
			return Plan{}, ErrNoShowTooEarly
		}
	}
	return plan, nil
}

// linkage resolves the external id a confirmation will carry.
func linkage(b *Booking, supplied string) (string, error) {
	supplied = strings.TrimSpace(supplied)
	current := ""
	if b.ExternalBookingID != nil {
		current = strings.TrimSpace(*b.ExternalBookingID)
	}
	switch {
	case supplied == "" && current == "":
		return "", apperror.ExternalLinkageMissing(b.ID)
	case supplied == "":
		supplied = current
	case current != "" && current != supplied:
		return "", ErrExternalIDMismatch
	}
	if len(supplied) < MinExternalIDLength {
		return "", apperror.ExternalLinkageMissing(b.ID)
	}
	return supplied, nil
}

// Apply writes a plan's state changes onto b.
func (p Plan) Apply(b *Booking, in TransitionInput) {
	if p.Noop {
		return
	}
	b.Status = p.To
	if p.ExternalBookingID != "" {
		id := p.ExternalBookingID
		b.ExternalBookingID = &id
	}
	reason := strings.TrimSpace(in.Reason)
	switch in.Action {
	case ActionDecline:
		b.DeclineReason = reason
	case ActionRequestCancel, ActionWithdraw:
		if reason != "" {
			b.CancellationReason = reason
		}
	}
}
