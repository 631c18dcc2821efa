package validator

import (
	rangevalidator "rentals/internal/reservations/validator"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"
	"time"
)

type BookingValidator struct {
	structs  *validation.Validator
	ranges   *rangevalidator.DateRangeValidator
	minHours int
	logger   *logger.Logger
}

func NewBookingValidator(structs *validation.Validator, ranges *rangevalidator.DateRangeValidator, minHours int, log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		structs:  structs,
		ranges:   ranges,
		minHours: minHours,
		logger:   log,
	}
}

// Validate checks the stay dates first, then the ids in the request body.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.ValidateRange(req.CheckInDate, req.CheckOutDate); err != nil {
		return err
	}

	return v.ValidateFields(req)
}

// ValidateFields checks the request body without the stay dates.
func (v *BookingValidator) ValidateFields(req *model.BookingRequest) error {
	if err := v.structs.Struct(req); err != nil {
		v.logger.Warn("Booking validation failed", "error", err)
		return validation.AppError("Booking validation failed", err)
	}
	return nil
}

func (v *BookingValidator) ValidateRange(checkIn, checkOut *time.Time) error {
	if err := v.ranges.Validate(checkIn, checkOut, v.minHours); err != nil {
		v.logger.Debug("Booking date range rejected", "check_in_date", checkIn, "check_out_date", checkOut, "error", err)
		return apperrors.InvalidDateRange(err)
	}
	return nil
}
