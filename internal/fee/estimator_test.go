package fee

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socialInput() Input {
	return Input{
		Tier:                 "Social",
		DurationMinutes:      90,
		DeclaredPlayerCount:  2,
		FilledPlayerCount:    1,
		GuestFeeCents:        1500,
		OverageCentsPerBlock: 2000,
		OverageBlockMinutes:  30,
		TierAllowanceMinutes: map[string]int{"social": 60},
	}
}

func TestEstimateSocialTier(t *testing.T) {
	cents, err := EstimateCents(socialInput())
	require.NoError(t, err)

	assert.Equal(t, int64(3500), cents)
	assert.Equal(t, "$35.00", FormatDollars(cents))
}

func TestEstimateTierMatchIgnoresCase(t *testing.T) {
	for _, allowances := range []map[string]int{
		{"Social": 60},
		{"SOCIAL": 60},
		{" social ": 60},
		{"social": 60},
	} {
		in := socialInput()
		in.TierAllowanceMinutes = allowances

		cents, err := EstimateCents(in)
		require.NoError(t, err)
		assert.Equal(t, int64(3500), cents, "allowances %v", allowances)
	}

	in := socialInput()
	in.Tier = "social"
	in.TierAllowanceMinutes = map[string]int{"Social": 60}
	assert.Equal(t, 1, OverageBlocks(in))
}

func TestEstimateCents(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *Input)
		want   int64
	}{
		{name: "within allowance, fully rostered", modify: func(in *Input) { in.DurationMinutes = 60; in.FilledPlayerCount = 2 }, want: 0},
		{name: "partial block rounds up", modify: func(in *Input) { in.DurationMinutes = 61 }, want: 2000 + 1500},
		{name: "two full blocks", modify: func(in *Input) { in.DurationMinutes = 120 }, want: 4000 + 1500},
		{name: "unknown tier has no allowance", modify: func(in *Input) { in.Tier = "visitor"; in.DurationMinutes = 30 }, want: 2000 + 1500},
		{name: "earlier usage consumes allowance", modify: func(in *Input) { in.UsedMinutesToday = 60; in.DurationMinutes = 30 }, want: 2000 + 1500},
		{name: "host never pays guest fee", modify: func(in *Input) { in.DeclaredPlayerCount = 1; in.FilledPlayerCount = 0; in.DurationMinutes = 60 }, want: 0},
		{name: "empty roster bills declared minus host", modify: func(in *Input) { in.DeclaredPlayerCount = 4; in.FilledPlayerCount = 0; in.DurationMinutes = 60 }, want: 3 * 1500},
		{name: "over-filled roster clamps at zero", modify: func(in *Input) { in.FilledPlayerCount = 5; in.DurationMinutes = 60 }, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := socialInput()
			tt.modify(&in)
			got, err := EstimateCents(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateIsIdempotent(t *testing.T) {
	in := socialInput()
	first, err := EstimateCents(in)
	require.NoError(t, err)
	second, err := EstimateCents(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, map[string]int{"social": 60}, in.TierAllowanceMinutes)
}

func TestEstimateRejectsMalformedInput(t *testing.T) {
	for _, modify := range []func(in *Input){
		func(in *Input) { in.DurationMinutes = -1 },
		func(in *Input) { in.DeclaredPlayerCount = 0 },
		func(in *Input) { in.FilledPlayerCount = -1 },
		func(in *Input) { in.OverageBlockMinutes = 0 },
		func(in *Input) { in.GuestFeeCents = -5 },
	} {
		in := socialInput()
		modify(&in)
		_, err := EstimateCents(in)
		assert.ErrorIs(t, err, ErrMalformedInput)
	}
}

func TestQuoteFor(t *testing.T) {
	tests := []struct {
		name string
		in   QuoteInput
		want Quote
	}{
		{name: "paid snapshot wins over everything", in: QuoteInput{SnapshotPaid: true, TotalOwedCents: 9900, SameDay: true, Estimate: socialInput()}, want: Quote{Cents: 0, Source: SourcePaid}},
		{name: "authoritative total", in: QuoteInput{TotalOwedCents: 4250, SameDay: true, Estimate: socialInput()}, want: Quote{Cents: 4250, Source: SourceAuthoritative}},
		{name: "same-day estimate", in: QuoteInput{SameDay: true, Estimate: socialInput()}, want: Quote{Cents: 3500, Source: SourceEstimate}},
		{name: "future booking without total", in: QuoteInput{Estimate: socialInput()}, want: Quote{Cents: 0, Source: SourceNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteFor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaidSnapshotAlwaysZero(t *testing.T) {
	for declared := 1; declared <= 6; declared++ {
		for filled := 0; filled <= declared; filled++ {
			in := socialInput()
			in.DeclaredPlayerCount = declared
			in.FilledPlayerCount = filled
			in.DurationMinutes = 240
			q, err := QuoteFor(QuoteInput{SnapshotPaid: true, SameDay: true, TotalOwedCents: 100, Estimate: in})
			require.NoError(t, err)
			assert.Zero(t, q.Cents)
		}
	}
}

func TestMoneyDisplay(t *testing.T) {
	assert.Equal(t, "$42.50", FormatDollars(4250))
	assert.Equal(t, "$43", FormatBadge(4250))
	assert.Equal(t, "$42", FormatBadge(4249))
	assert.Equal(t, "$0.05", FormatDollars(5))
}

func TestLoadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
guest_fee_cents: 2500
tier_allowance_minutes:
  Social: 45
  Founding: 180
`), 0o600))

	s, err := LoadSchedule(path)
	require.NoError(t, err)

	assert.Equal(t, int64(2500), s.GuestFeeCents)
	assert.Equal(t, int64(2000), s.OverageCentsPerBlock)
	assert.Equal(t, 30, s.OverageBlockMinutes)
	assert.Equal(t, map[string]int{"social": 45, "founding": 180}, s.TierAllowanceMinutes)

	def, err := LoadSchedule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule(), def)
}

func TestLoadScheduleRejectsNegativeAllowance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tier_allowance_minutes:\n  social: -10\n"), 0o600))

	_, err := LoadSchedule(path)
	assert.Error(t, err)
}
