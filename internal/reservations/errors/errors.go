package errors

import "errors"

// Range rules, checked in this order.
var (
	ErrMissingDates = errors.New("start and end dates are required")

	ErrStartInPast = errors.New("start date cannot be in the past")

	ErrEndInPast = errors.New("end date cannot be in the past")

	ErrStartAfterEnd = errors.New("start date must be before end date")

	ErrDurationTooShort = errors.New("reservation is shorter than the minimum duration")
)

var ErrLockNotHeld = errors.New("property lock is not held by this owner")
