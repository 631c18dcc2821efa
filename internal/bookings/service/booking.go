package service

import (
	"context"
	"errors"
	"net/http"
	bookingserrors "rentals/internal/bookings/errors"
	"rentals/internal/bookings/repository"
	"rentals/internal/bookings/validator"
	"rentals/internal/events"
	reservations "rentals/internal/reservations/service"
	"rentals/pkg/clock"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"sync"
)

const (
	msgAlreadyBooked  = "The location is already booked at the given date"
	msgOwnerBlocked   = "The property was blocked by the owner in the same period"
	msgRebookBooked   = "Cannot rebook, the location is already booked at the given date"
	msgRebookBlocked  = "Cannot rebook, the property was blocked by the owner in the same period"
	msgRebookNoGuest  = "Cannot rebook, guest not found"
	msgConcurrentMove = "Booking was moved to another property while processing, please retry"
)

// GuestLookup is the part of the user service bookings depend on.
type GuestLookup interface {
	FindByIDAndRole(ctx context.Context, id string, role model.UserRole) (*model.User, error)
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	Rebook(ctx context.Context, id string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	engine    reservations.ReservationEngine
	guests    GuestLookup
	validator *validator.BookingValidator
	publisher events.Publisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	engine reservations.ReservationEngine,
	guests GuestLookup,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	c clock.Clock,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		engine:    engine,
		guests:    guests,
		validator: validator,
		publisher: publisher,
		clock:     c,
		log:       log,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	log := logger.FromContext(ctx, s.log)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.guests.FindByIDAndRole(ctx, req.GuestID, model.RoleGuest); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		PropertyID:   req.PropertyID,
		GuestID:      req.GuestID,
		CheckInDate:  req.CheckInDate.UTC(),
		CheckOutDate: req.CheckOutDate.UTC(),
		Status:       model.BookingActive,
	}

	err := s.engine.WithPropertyLock(ctx, booking.PropertyID, func(txCtx context.Context) error {
		if err := s.checkAvailability(txCtx, booking.PropertyID, booking.Range(), msgAlreadyBooked, msgOwnerBlocked); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("Failed to create booking", "property_id", booking.PropertyID, "error", err)
		return nil, err
	}

	log.Info("Booking created successfully",
		"id", booking.ID,
		"property_id", booking.PropertyID,
		"guest_id", booking.GuestID,
		"check_in_date", booking.CheckInDate,
		"check_out_date", booking.CheckOutDate,
	)
	s.publish(ctx, model.EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	return s.load(ctx, id)
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Update replaces property, guest and dates of a booking. Status is kept.
// Guest and property are resolved before the new range is checked. The
// booking's own stored range never conflicts with its new one.
func (s *bookingService) Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateFields(req); err != nil {
		return nil, err
	}
	if _, err := s.guests.FindByIDAndRole(ctx, req.GuestID, model.RoleGuest); err != nil {
		return nil, err
	}
	if err := s.engine.ResolveProperty(ctx, req.PropertyID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateRange(req.CheckInDate, req.CheckOutDate); err != nil {
		return nil, err
	}

	var updated *model.Booking
	locked := []string{existing.PropertyID, req.PropertyID}
	err = s.engine.WithPropertyLocks(ctx, locked, func(txCtx context.Context) error {
		current, err := s.reload(txCtx, id, locked)
		if err != nil {
			return err
		}

		current.PropertyID = req.PropertyID
		current.GuestID = req.GuestID
		current.CheckInDate = req.CheckInDate.UTC()
		current.CheckOutDate = req.CheckOutDate.UTC()

		if err := s.checkAvailability(txCtx, current.PropertyID, current.Range(), msgAlreadyBooked, msgOwnerBlocked, reservations.Excluding(id)); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, current); err != nil {
			return s.mapRepoError(err, id, "Failed to update booking")
		}
		updated = current
		return nil
	})
	if err != nil {
		log.Warn("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	log.Info("Booking updated successfully", "id", id, "property_id", updated.PropertyID)
	s.publish(ctx, model.EventBookingUpdated, updated)
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var cancelled *model.Booking
	locked := []string{existing.PropertyID}
	err = s.engine.WithPropertyLocks(ctx, locked, func(txCtx context.Context) error {
		current, err := s.reload(txCtx, id, locked)
		if err != nil {
			return err
		}
		if current.Status == model.BookingCancelled {
			return apperrors.BusinessRule("Booking is already cancelled")
		}

		current.Status = model.BookingCancelled
		if err := s.repo.Update(txCtx, current); err != nil {
			return s.mapRepoError(err, id, "Failed to cancel booking")
		}
		cancelled = current
		return nil
	})
	if err != nil {
		log.Warn("Failed to cancel booking", "id", id, "error", err)
		return nil, err
	}

	log.Info("Booking cancelled successfully", "id", id, "property_id", cancelled.PropertyID)
	s.publish(ctx, model.EventBookingCancelled, cancelled)
	return cancelled, nil
}

// Rebook reactivates a cancelled booking on its stored range.
func (s *bookingService) Rebook(ctx context.Context, id string) (*model.Booking, error) {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var rebooked *model.Booking
	locked := []string{existing.PropertyID}
	err = s.engine.WithPropertyLocks(ctx, locked, func(txCtx context.Context) error {
		current, err := s.reload(txCtx, id, locked)
		if err != nil {
			return err
		}
		if current.Status == model.BookingActive {
			return apperrors.BusinessRule("Booking is already active")
		}

		if _, err := s.guests.FindByIDAndRole(txCtx, current.GuestID, model.RoleGuest); err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				return apperrors.New(apperrors.CodeNotFound, msgRebookNoGuest, http.StatusNotFound)
			}
			return err
		}

		if err := s.checkAvailability(txCtx, current.PropertyID, current.Range(), msgRebookBooked, msgRebookBlocked, reservations.Excluding(id)); err != nil {
			return err
		}

		current.Status = model.BookingActive
		if err := s.repo.Update(txCtx, current); err != nil {
			return s.mapRepoError(err, id, "Failed to rebook booking")
		}
		rebooked = current
		return nil
	})
	if err != nil {
		log.Warn("Failed to rebook booking", "id", id, "error", err)
		return nil, err
	}

	log.Info("Booking rebooked successfully", "id", id, "property_id", rebooked.PropertyID)
	s.publish(ctx, model.EventBookingRebooked, rebooked)
	return rebooked, nil
}

// Delete removes the booking without a conflict check; freeing a range is
// always safe. The lease is still taken so a concurrent rebook cannot
// resurrect the record.
func (s *bookingService) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	err = s.engine.WithPropertyLock(ctx, existing.PropertyID, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return s.mapRepoError(err, id, "Failed to delete booking")
		}
		return nil
	})
	if err != nil {
		log.Warn("Failed to delete booking", "id", id, "error", err)
		return err
	}

	log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, model.EventBookingDeleted, existing)
	return nil
}

// --- Helpers ---

// checkAvailability runs both occupancy queries and reports the booking
// conflict before the block conflict.
func (s *bookingService) checkAvailability(ctx context.Context, propertyID string, r model.DateRange, bookedMsg, blockedMsg string, opts ...reservations.CheckOption) error {
	busy, err := s.engine.ExistsBookingOnDate(ctx, propertyID, r.Start, r.End, opts...)
	if err != nil {
		return err
	}
	blocked, err := s.engine.IsBlockedOnDate(ctx, propertyID, r.Start, r.End)
	if err != nil {
		return err
	}

	switch {
	case busy:
		return apperrors.PropertyBusy(bookedMsg)
	case blocked:
		return apperrors.PropertyBlocked(blockedMsg)
	}
	return nil
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

// reload reads the booking again under the lease and makes sure it still
// belongs to one of the locked properties.
func (s *bookingService) reload(ctx context.Context, id string, locked []string) (*model.Booking, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, pid := range locked {
		if current.PropertyID == pid {
			return current, nil
		}
	}
	return nil, apperrors.Conflict(msgConcurrentMove)
}

func (s *bookingService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *bookingService) publish(ctx context.Context, eventType model.OccupancyEventType, booking *model.Booking) {
	s.publisher.Publish(ctx, model.BookingEvent(eventType, booking, s.clock.Now()))
}
