package engine

import "time"

// ValidateSchedule is the validation callback handed to schedule pickers.
// It reports whether the proposed start/due pair is acceptable and invokes
// onSuccess only when it is, so the picker stays open on rejection.
//
// Policy: a due instant before the start instant is rejected outright. It
// is never silently snapped to the start.
func ValidateSchedule(finalStart, finalDue time.Time, onSuccess func()) bool {
	if !finalStart.IsZero() && !finalDue.IsZero() && finalDue.Before(finalStart) {
		return false
	}
	if onSuccess != nil {
		onSuccess()
	}
	return true
}
