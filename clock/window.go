package clock

import (
	"fmt"
	"time"
)

type WindowKind string

const (
	OutsideSubmissionWindow WindowKind = "outside_submission_window"
	OutsideFeedbackWindow   WindowKind = "outside_feedback_window"
)

// WindowError reports a write attempted outside its permitted local-time
// window. LocalTime is the user's current wall-clock time, formatted for
// display.
type WindowError struct {
	Kind      WindowKind
	LogDate   Date
	LocalTime string
}

func (e *WindowError) Error() string {
	switch e.Kind {
	case OutsideSubmissionWindow:
		return fmt.Sprintf("logs for %s can only be submitted between 6:00 PM and 12:00 PM the next day (current time: %s)", e.LogDate, e.LocalTime)
	case OutsideFeedbackWindow:
		return fmt.Sprintf("feedback for %s can only be requested between 12:00 PM and midnight the day after (current time: %s)", e.LogDate, e.LocalTime)
	}
	return fmt.Sprintf("outside time window (current time: %s)", e.LocalTime)
}

const localTimeLayout = "03:04 PM"

// ValidateLogSubmission allows a log for logDate only while the local
// clock is within [logDate 18:00, logDate+1 12:00], inclusive. The
// window is recomputed from the given instant on every call; nothing is
// cached or persisted.
func ValidateLogSubmission(timezoneID string, logDate Date, now time.Time) error {
	loc, err := LoadLocation(timezoneID)
	if err != nil {
		return err
	}
	local := now.In(loc)

	start := logDate.At(18, 0, 0, loc)
	end := logDate.Next().At(12, 0, 0, loc)

	if local.Before(start) || local.After(end) {
		return &WindowError{
			Kind:      OutsideSubmissionWindow,
			LogDate:   logDate,
			LocalTime: local.Format(localTimeLayout),
		}
	}
	return nil
}

// ValidateFeedbackRequest allows feedback for logDate only while the
// local clock is within [logDate+1 12:00, logDate+1 23:59:59],
// inclusive.
func ValidateFeedbackRequest(timezoneID string, logDate Date, now time.Time) error {
	loc, err := LoadLocation(timezoneID)
	if err != nil {
		return err
	}
	local := now.In(loc)

	next := logDate.Next()
	start := next.At(12, 0, 0, loc)
	end := next.At(23, 59, 59, loc)

	if local.Before(start) || local.After(end) {
		return &WindowError{
			Kind:      OutsideFeedbackWindow,
			LogDate:   logDate,
			LocalTime: local.Format(localTimeLayout),
		}
	}
	return nil
}
