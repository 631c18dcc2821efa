package service

import (
	"context"
	"errors"
	propertieserrors "rentals/internal/properties/errors"
	mongotx "rentals/pkg/db/mongo"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"slices"
	"time"
)

type BookingFinder interface {
	ExistsActiveOverlapping(ctx context.Context, propertyID string, r model.DateRange, excludeID string) (bool, error)
}

type BlockFinder interface {
	ExistsOverlapping(ctx context.Context, propertyID string, r model.DateRange, excludeID string) (bool, error)
}

// PropertyLookup resolves a property and write-locks its document for the
// rest of the surrounding transaction.
type PropertyLookup interface {
	FindByIDForUpdate(ctx context.Context, id string) (*model.Property, error)
}

type checkOptions struct {
	excludeID string
}

type CheckOption func(*checkOptions)

// Excluding leaves the record with the given id out of the overlap scan, so a
// booking or block being moved does not conflict with its own stored range.
func Excluding(id string) CheckOption {
	return func(o *checkOptions) {
		o.excludeID = id
	}
}

// ReservationEngine answers occupancy questions for both bookings and blocks
// so neither aggregate has to know about the other.
type ReservationEngine interface {
	IsBlockedOnDate(ctx context.Context, propertyID string, start, end time.Time, opts ...CheckOption) (bool, error)
	ExistsBookingOnDate(ctx context.Context, propertyID string, start, end time.Time, opts ...CheckOption) (bool, error)
	// ResolveProperty fails with NOT_FOUND or INVALID_INPUT when propertyID
	// does not name a stored property.
	ResolveProperty(ctx context.Context, propertyID string) error
	// WithPropertyLock runs fn in one transaction while holding the lease on
	// propertyID. fn must use the ctx it is given.
	WithPropertyLock(ctx context.Context, propertyID string, fn func(ctx context.Context) error) error
	// WithPropertyLocks is WithPropertyLock over several properties. Leases
	// are taken in id order so two callers cannot deadlock.
	WithPropertyLocks(ctx context.Context, propertyIDs []string, fn func(ctx context.Context) error) error
}

type reservationEngine struct {
	bookings   BookingFinder
	blocks     BlockFinder
	properties PropertyLookup
	locker     *PropertyLocker
	txManager  mongotx.TransactionManager
	log        *logger.Logger
}

func NewReservationEngine(
	bookings BookingFinder,
	blocks BlockFinder,
	properties PropertyLookup,
	locker *PropertyLocker,
	txManager mongotx.TransactionManager,
	log *logger.Logger,
) ReservationEngine {
	return &reservationEngine{
		bookings:   bookings,
		blocks:     blocks,
		properties: properties,
		locker:     locker,
		txManager:  txManager,
		log:        log,
	}
}

func (e *reservationEngine) IsBlockedOnDate(ctx context.Context, propertyID string, start, end time.Time, opts ...CheckOption) (bool, error) {
	o := applyOptions(opts)
	if err := e.resolveProperty(ctx, propertyID); err != nil {
		return false, err
	}

	blocked, err := e.blocks.ExistsOverlapping(ctx, propertyID, model.NewDateRange(start, end), o.excludeID)
	if err != nil {
		return false, apperrors.Internal("Failed to check property blocks", err)
	}
	return blocked, nil
}

func (e *reservationEngine) ExistsBookingOnDate(ctx context.Context, propertyID string, start, end time.Time, opts ...CheckOption) (bool, error) {
	o := applyOptions(opts)
	if err := e.resolveProperty(ctx, propertyID); err != nil {
		return false, err
	}

	busy, err := e.bookings.ExistsActiveOverlapping(ctx, propertyID, model.NewDateRange(start, end), o.excludeID)
	if err != nil {
		return false, apperrors.Internal("Failed to check property bookings", err)
	}
	return busy, nil
}

func (e *reservationEngine) ResolveProperty(ctx context.Context, propertyID string) error {
	return e.resolveProperty(ctx, propertyID)
}

func (e *reservationEngine) WithPropertyLock(ctx context.Context, propertyID string, fn func(ctx context.Context) error) error {
	return e.WithPropertyLocks(ctx, []string{propertyID}, fn)
}

func (e *reservationEngine) WithPropertyLocks(ctx context.Context, propertyIDs []string, fn func(ctx context.Context) error) error {
	ids := slices.Clone(propertyIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	for _, id := range ids {
		release, err := e.locker.Acquire(ctx, id)
		if err != nil {
			return err
		}
		defer release()
	}

	return e.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return fn(txCtx)
	})
}

func (e *reservationEngine) resolveProperty(ctx context.Context, propertyID string) error {
	if _, err := e.properties.FindByIDForUpdate(ctx, propertyID); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Property", propertyID)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid property ID format")
		}
		e.log.Error("Failed to lock property", "property_id", propertyID, "error", err)
		return apperrors.Internal("Failed to resolve property", err)
	}
	return nil
}

func applyOptions(opts []CheckOption) checkOptions {
	var o checkOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
