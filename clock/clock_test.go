package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/daybook/clock"
)

func TestParseDate(t *testing.T) {
	d, err := clock.ParseDate("2025-01-10")
	assert.NoError(t, err)
	assert.Equal(t, clock.NewDate(2025, time.January, 10), d)
	assert.Equal(t, "2025-01-10", d.String())

	for _, bad := range []string{"", "2025-1-10", "10-01-2025", "2025-13-01", "2025-01-32", "not a date"} {
		_, err := clock.ParseDate(bad)
		assert.Error(t, err, "input: %q", bad)
	}
}

func TestDateAddDays(t *testing.T) {
	tests := []struct {
		name string
		from clock.Date
		days int
		want clock.Date
	}{
		{"Within Month", clock.NewDate(2025, time.January, 10), 1, clock.NewDate(2025, time.January, 11)},
		{"Month Boundary", clock.NewDate(2025, time.January, 31), 1, clock.NewDate(2025, time.February, 1)},
		{"Year Boundary", clock.NewDate(2025, time.December, 31), 1, clock.NewDate(2026, time.January, 1)},
		{"Leap Day", clock.NewDate(2024, time.February, 28), 1, clock.NewDate(2024, time.February, 29)},
		{"Non-Leap", clock.NewDate(2025, time.February, 28), 1, clock.NewDate(2025, time.March, 1)},
		{"Backward", clock.NewDate(2025, time.March, 1), -1, clock.NewDate(2025, time.February, 28)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.AddDays(tc.days))
		})
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := clock.LoadLocation("America/Chicago")
	assert.NoError(t, err)
	assert.NotNil(t, loc)

	_, err = clock.LoadLocation("Not/AZone")
	assert.ErrorIs(t, err, clock.ErrInvalidTimezone)

	_, err = clock.LoadLocation("")
	assert.ErrorIs(t, err, clock.ErrInvalidTimezone)
}
