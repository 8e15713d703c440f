package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/slot"
)

var (
	staff  = Actor{UserID: "s1", Email: "desk@club.com", Staff: true}
	owner  = Actor{UserID: "m1", Email: "jane@club.com"}
	day    = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	extID  = "TM-483920"
	listed = map[edge]Status{
		{StatusPending, ActionApprove}:                    StatusApproved,
		{StatusPending, ActionConfirm}:                    StatusConfirmed,
		{StatusApproved, ActionConfirm}:                   StatusConfirmed,
		{StatusPending, ActionDecline}:                    StatusDeclined,
		{StatusApproved, ActionDecline}:                   StatusDeclined,
		{StatusPending, ActionWithdraw}:                   StatusCancelled,
		{StatusConfirmed, ActionCheckIn}:                  StatusAttended,
		{StatusAttended, ActionCheckIn}:                   StatusAttended,
		{StatusConfirmed, ActionNoShow}:                   StatusNoShow,
		{StatusConfirmed, ActionRequestCancel}:            StatusCancellationPending,
		{StatusCancellationPending, ActionCompleteCancel}: StatusCancelled,
	}
)

func sampleBooking(status Status) *Booking {
	return &Booking{
		ID:                  "b1",
		Status:              status,
		Date:                day,
		Interval:            slot.Interval{Start: 600, End: 660},
		Owner:               KnownMember{MemberEmail: "jane@club.com", Name: "Jane Doe", MemberTier: "Social"},
		DeclaredPlayerCount: 1,
		ExternalBookingID:   &extID,
		Version:             3,
	}
}

func TestStateMachineTotality(t *testing.T) {
	for _, st := range Statuses {
		for _, action := range Actions {
			next, err := Next(st, action)
			want, ok := listed[edge{st, action}]
			if ok {
				require.NoError(t, err, "%s + %s", st, action)
				assert.Equal(t, want, next)
				continue
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr, "%s + %s", st, action)
			assert.Equal(t, apperror.KindInvalidTransition, appErr.Kind)
			assert.Equal(t, string(st), appErr.Details["current_state"])
			assert.Equal(t, string(action), appErr.Details["action"])
			assert.Equal(t, st, next)
		}
	}
}

func TestEvaluateInvalidTransitionForEveryUnlistedPair(t *testing.T) {
	for _, st := range Statuses {
		for _, action := range Actions {
			if _, ok := listed[edge{st, action}]; ok {
				continue
			}
			_, err := Evaluate(sampleBooking(st), TransitionInput{Action: action, Reason: "x"}, staff, day)
			assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(err), "%s + %s", st, action)
		}
	}
}

func TestConfirmRequiresExternalLinkage(t *testing.T) {
	b := sampleBooking(StatusPending)
	b.ExternalBookingID = nil

	_, err := Evaluate(b, TransitionInput{Action: ActionConfirm}, staff, day)
	assert.Equal(t, apperror.KindExternalLinkageMissing, apperror.KindOf(err))

	_, err = Evaluate(b, TransitionInput{Action: ActionConfirm, ExternalBookingID: "TM1"}, staff, day)
	assert.Equal(t, apperror.KindExternalLinkageMissing, apperror.KindOf(err), "too short")

	plan, err := Evaluate(b, TransitionInput{Action: ActionConfirm, ExternalBookingID: " TM-100200 "}, staff, day)
	require.NoError(t, err)
	assert.Equal(t, "TM-100200", plan.ExternalBookingID)
	assert.True(t, plan.Places)

	plan.Apply(b, TransitionInput{Action: ActionConfirm})
	assert.Equal(t, StatusConfirmed, b.Status)
	require.NotNil(t, b.ExternalBookingID)
	assert.Equal(t, "TM-100200", *b.ExternalBookingID)
}

func TestConfirmRejectsDifferentLinkage(t *testing.T) {
	_, err := Evaluate(sampleBooking(StatusApproved), TransitionInput{Action: ActionConfirm, ExternalBookingID: "TM-999999"}, staff, day)
	assert.ErrorIs(t, err, ErrExternalIDMismatch)
}

func TestEvaluateGuards(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		in     TransitionInput
		actor  Actor
		today  time.Time
		want   error
	}{
		{name: "member cannot approve", status: StatusPending, in: TransitionInput{Action: ActionApprove}, actor: owner, today: day, want: ErrPermissionDenied},
		{name: "stranger cannot withdraw", status: StatusPending, in: TransitionInput{Action: ActionWithdraw}, actor: Actor{Email: "bob@club.com"}, today: day, want: ErrPermissionDenied},
		{name: "decline needs reason", status: StatusPending, in: TransitionInput{Action: ActionDecline, Reason: "  "}, actor: staff, today: day, want: ErrDeclineReason},
		{name: "check-in on another day", status: StatusConfirmed, in: TransitionInput{Action: ActionCheckIn}, actor: staff, today: day.AddDate(0, 0, 1), want: ErrCheckInNotToday},
		{name: "no-show before the date", status: StatusConfirmed, in: TransitionInput{Action: ActionNoShow}, actor: staff, today: day.AddDate(0, 0, -1), want: ErrNoShowTooEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(sampleBooking(tt.status), tt.in, tt.actor, tt.today)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluateStaleVersion(t *testing.T) {
	_, err := Evaluate(sampleBooking(StatusPending), TransitionInput{Action: ActionApprove, ExpectedVersion: 2}, staff, day)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindStaleState, appErr.Kind)
	assert.Equal(t, 3, appErr.Details["current_version"])
}

func TestOwnerMayCancelOwnBooking(t *testing.T) {
	plan, err := Evaluate(sampleBooking(StatusConfirmed), TransitionInput{Action: ActionRequestCancel, Reason: "sick"}, owner, day)
	require.NoError(t, err)
	assert.Equal(t, EffectNotifyCancellation, plan.Effect)

	b := sampleBooking(StatusConfirmed)
	plan.Apply(b, TransitionInput{Action: ActionRequestCancel, Reason: "sick"})
	assert.Equal(t, StatusCancellationPending, b.Status)
	assert.Equal(t, "sick", b.CancellationReason)
}

func TestRepeatedCheckInIsNoop(t *testing.T) {
	for _, today := range []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 30)} {
		plan, err := Evaluate(sampleBooking(StatusAttended), TransitionInput{Action: ActionCheckIn}, staff, today)
		require.NoError(t, err)
		assert.True(t, plan.Noop)
	}
}

func TestCompleteCancelReversesCharges(t *testing.T) {
	plan, err := Evaluate(sampleBooking(StatusCancellationPending), TransitionInput{Action: ActionCompleteCancel}, staff, day)
	require.NoError(t, err)
	assert.Equal(t, EffectReverseCharges, plan.Effect)

	_, err = Evaluate(sampleBooking(StatusCancellationPending), TransitionInput{Action: ActionCompleteCancel}, owner, day)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
