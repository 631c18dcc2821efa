package validator

import (
	"fmt"
	reservationserrors "rentals/internal/reservations/errors"
	"rentals/pkg/clock"
	"time"
)

// DateRangeValidator checks candidate reservation ranges against the current
// time taken from its clock.
type DateRangeValidator struct {
	clock clock.Clock
}

func NewDateRangeValidator(c clock.Clock) *DateRangeValidator {
	return &DateRangeValidator{clock: c}
}

// Validate returns the first rule the range breaks, or nil. The returned error
// wraps one of the sentinels in internal/reservations/errors.
func (v *DateRangeValidator) Validate(start, end *time.Time, minHours int) error {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return reservationserrors.ErrMissingDates
	}

	now := v.clock.Now()

	if start.Before(now) {
		return reservationserrors.ErrStartInPast
	}
	if end.Before(now) {
		return reservationserrors.ErrEndInPast
	}
	if !start.Before(*end) {
		return reservationserrors.ErrStartAfterEnd
	}

	minDuration := time.Duration(minHours) * time.Hour
	if end.Sub(*start) < minDuration {
		return fmt.Errorf("%w: minimum is %d hours", reservationserrors.ErrDurationTooShort, minHours)
	}

	return nil
}
