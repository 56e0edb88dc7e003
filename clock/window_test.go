package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/daybook/clock"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	assert.NoError(t, err)
	return loc
}

func TestValidateLogSubmission(t *testing.T) {
	loc := chicago(t)
	logDate := clock.NewDate(2025, time.January, 10)

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"Evening Of", time.Date(2025, 1, 10, 19, 0, 0, 0, loc), true},
		{"Next Morning", time.Date(2025, 1, 11, 11, 59, 0, 0, loc), true},
		{"Window Opens", time.Date(2025, 1, 10, 18, 0, 0, 0, loc), true},
		{"Window Closes", time.Date(2025, 1, 11, 12, 0, 0, 0, loc), true},
		{"Too Early", time.Date(2025, 1, 10, 17, 59, 0, 0, loc), false},
		{"Too Late", time.Date(2025, 1, 11, 12, 1, 0, 0, loc), false},
		{"Previous Day", time.Date(2025, 1, 9, 20, 0, 0, 0, loc), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := clock.ValidateLogSubmission("America/Chicago", logDate, tc.now)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				var windowErr *clock.WindowError
				assert.ErrorAs(t, err, &windowErr)
				assert.Equal(t, clock.OutsideSubmissionWindow, windowErr.Kind)
				assert.Equal(t, logDate, windowErr.LogDate)
				assert.NotEmpty(t, windowErr.LocalTime)
			}
		})
	}
}

func TestValidateLogSubmission_UTCInstant(t *testing.T) {
	// The instant can be in any zone; the check converts it to the
	// user's local wall clock. 2025-01-11 01:00 UTC is 19:00 on the
	// 10th in Chicago (UTC-6 in winter).
	now := time.Date(2025, 1, 11, 1, 0, 0, 0, time.UTC)
	err := clock.ValidateLogSubmission("America/Chicago", clock.NewDate(2025, time.January, 10), now)
	assert.NoError(t, err)
}

func TestValidateLogSubmission_DST(t *testing.T) {
	loc := chicago(t)
	// US DST begins 2025-03-09 02:00 local; the morning after the
	// spring-forward night must still fall inside the 2025-03-08 window.
	err := clock.ValidateLogSubmission("America/Chicago", clock.NewDate(2025, time.March, 8), time.Date(2025, 3, 9, 11, 30, 0, 0, loc))
	assert.NoError(t, err)

	err = clock.ValidateLogSubmission("America/Chicago", clock.NewDate(2025, time.March, 8), time.Date(2025, 3, 9, 12, 30, 0, 0, loc))
	assert.Error(t, err)
}

func TestValidateLogSubmission_InvalidTimezone(t *testing.T) {
	err := clock.ValidateLogSubmission("Mars/Olympus", clock.NewDate(2025, time.January, 10), time.Now())
	assert.ErrorIs(t, err, clock.ErrInvalidTimezone)
}

func TestValidateFeedbackRequest(t *testing.T) {
	loc := chicago(t)
	logDate := clock.NewDate(2025, time.January, 10)

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"Window Opens", time.Date(2025, 1, 11, 12, 0, 0, 0, loc), true},
		{"Evening After", time.Date(2025, 1, 11, 20, 30, 0, 0, loc), true},
		{"Window Closes", time.Date(2025, 1, 11, 23, 59, 59, 0, loc), true},
		{"Morning After", time.Date(2025, 1, 11, 11, 59, 0, 0, loc), false},
		{"Two Days Later", time.Date(2025, 1, 12, 0, 0, 0, 0, loc), false},
		{"Day Of", time.Date(2025, 1, 10, 19, 0, 0, 0, loc), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := clock.ValidateFeedbackRequest("America/Chicago", logDate, tc.now)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				var windowErr *clock.WindowError
				assert.ErrorAs(t, err, &windowErr)
				assert.Equal(t, clock.OutsideFeedbackWindow, windowErr.Kind)
			}
		})
	}
}
