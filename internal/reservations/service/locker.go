package service

import (
	"context"
	"errors"
	reservationserrors "rentals/internal/reservations/errors"
	"rentals/internal/reservations/repository"
	"rentals/pkg/clock"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"time"

	"github.com/google/uuid"
)

type LockConfig struct {
	LeaseTTL      time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

// PropertyLocker serializes reservation decisions per property through the
// lease store. Different properties never contend.
type PropertyLocker struct {
	repo  repository.PropertyLockRepository
	clock clock.Clock
	cfg   LockConfig
	log   *logger.Logger
}

func NewPropertyLocker(repo repository.PropertyLockRepository, c clock.Clock, cfg LockConfig, log *logger.Logger) *PropertyLocker {
	return &PropertyLocker{
		repo:  repo,
		clock: c,
		cfg:   cfg,
		log:   log,
	}
}

// Acquire waits up to WaitTimeout for the lease on propertyID. The returned
// release func must be called exactly once.
func (l *PropertyLocker) Acquire(ctx context.Context, propertyID string) (func(), error) {
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		ok, err := l.repo.TryAcquire(waitCtx, propertyID, owner, l.clock.Now(), l.cfg.LeaseTTL)
		if err != nil && waitCtx.Err() == nil {
			return nil, apperrors.Internal("Failed to acquire property lock", err)
		}
		if ok {
			if attempts > 1 {
				l.log.Debug("Property lock acquired after waiting", "property_id", propertyID, "attempts", attempts)
			}
			return func() { l.release(ctx, propertyID, owner) }, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn("Timed out waiting for property lock",
				"property_id", propertyID,
				"wait_timeout", l.cfg.WaitTimeout,
				"attempts", attempts,
			)
			return nil, apperrors.LockTimeout("Property", propertyID)
		case <-ticker.C:
		}
	}
}

func (l *PropertyLocker) release(ctx context.Context, propertyID, owner string) {
	// Release even if the request context is already done.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := l.repo.Release(ctx, propertyID, owner); err != nil {
		if errors.Is(err, reservationserrors.ErrLockNotHeld) {
			l.log.Warn("Property lock expired before release", "property_id", propertyID)
			return
		}
		l.log.Error("Failed to release property lock", "property_id", propertyID, "error", err)
	}
}
