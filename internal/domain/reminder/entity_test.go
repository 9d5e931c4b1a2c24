package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/campus-bot/internal/domain/shared"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
	}{
		{"00:00", 0, 0},
		{"09:05", 9, 5},
		{"9:5", 9, 5},
		{"23:59", 23, 59},
		{" 18:30 ", 18, 30},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseTime(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestParseTime_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"noon",
		"18",
		"24:00",
		"-1:30",
		"12:60",
		"12:xx",
		"aa:30",
	}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, _, err := ParseTime(input)
			assert.ErrorIs(t, err, shared.ErrInvalidReminderTime)
		})
	}
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "reminder:abc-123", JobName("abc-123"))
}
