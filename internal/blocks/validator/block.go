package validator

import (
	rangevalidator "rentals/internal/reservations/validator"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"
)

type BlockValidator struct {
	structs  *validation.Validator
	ranges   *rangevalidator.DateRangeValidator
	minHours int
	logger   *logger.Logger
}

func NewBlockValidator(structs *validation.Validator, ranges *rangevalidator.DateRangeValidator, minHours int, log *logger.Logger) *BlockValidator {
	return &BlockValidator{
		structs:  structs,
		ranges:   ranges,
		minHours: minHours,
		logger:   log,
	}
}

// Validate applies the same range rules as bookings. Updates are validated
// too, not only creates.
func (v *BlockValidator) Validate(req *model.BlockRequest) error {
	if err := v.ranges.Validate(req.StartDate, req.EndDate, v.minHours); err != nil {
		v.logger.Debug("Block date range rejected", "start_date", req.StartDate, "end_date", req.EndDate, "error", err)
		return apperrors.InvalidDateRange(err)
	}

	if err := v.structs.Struct(req); err != nil {
		v.logger.Warn("Block validation failed", "error", err)
		return validation.AppError("Block validation failed", err)
	}

	return nil
}
