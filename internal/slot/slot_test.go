package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"21:45", 1305, false},
		{"09:30:00", 570, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"7", 0, true},
		{"ab:cd", 0, true},
		{"12:60", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "08:00", FormatClock(480))
	assert.Equal(t, "21:45", FormatClock(1305))
	assert.Equal(t, "00:05", FormatClock(5))
}

func TestNewRejectsInvertedAndZeroLength(t *testing.T) {
	_, err := New(600, 600)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(660, 600)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(-15, 60)
	assert.ErrorIs(t, err, ErrOutOfDay)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := Interval{Start: 600, End: 660}

	assert.True(t, Overlaps(a, Interval{Start: 630, End: 690}))
	assert.True(t, Overlaps(a, Interval{Start: 540, End: 720}))
	assert.False(t, Overlaps(a, Interval{Start: 660, End: 720}), "touching at end")
	assert.False(t, Overlaps(a, Interval{Start: 540, End: 600}), "touching at start")
	assert.Equal(t, Overlaps(a, Interval{Start: 630, End: 645}), Overlaps(Interval{Start: 630, End: 645}, a))
}

func TestGrid(t *testing.T) {
	grid := Grid()
	require.Len(t, grid, 56)
	assert.Equal(t, Interval{Start: 480, End: 495}, grid[0])
	assert.Equal(t, "21:45", FormatClock(grid[len(grid)-1].Start))
	for _, s := range grid {
		assert.True(t, s.Aligned())
		assert.Equal(t, Granularity, s.Duration())
	}
}

func TestAlignedAndOperatingHours(t *testing.T) {
	assert.True(t, Interval{Start: 600, End: 690}.Aligned())
	assert.False(t, Interval{Start: 605, End: 690}.Aligned())
	assert.True(t, Interval{Start: 1305, End: 1320}.WithinOperatingHours())
	assert.False(t, Interval{Start: 1305, End: 1335}.WithinOperatingHours())
	assert.False(t, Interval{Start: 420, End: 495}.WithinOperatingHours())
}
