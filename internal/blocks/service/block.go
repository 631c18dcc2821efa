package service

import (
	"context"
	"errors"
	blockserrors "rentals/internal/blocks/errors"
	"rentals/internal/blocks/repository"
	"rentals/internal/blocks/validator"
	"rentals/internal/events"
	reservations "rentals/internal/reservations/service"
	"rentals/pkg/clock"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"sync"
)

const (
	msgAlreadyBlocked = "Property is already blocked on this date range"
	msgAlreadyBooked  = "Property is already booked on this date range"
)

type BlockService interface {
	Create(ctx context.Context, req *model.BlockRequest) (*model.Block, error)
	GetByID(ctx context.Context, id string) (*model.Block, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Block, int64, error)
	Update(ctx context.Context, id string, req *model.BlockRequest) (*model.Block, error)
	Delete(ctx context.Context, id string) error
}

type blockService struct {
	repo      repository.BlockRepository
	engine    reservations.ReservationEngine
	validator *validator.BlockValidator
	publisher events.Publisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewBlockService(
	repo repository.BlockRepository,
	engine reservations.ReservationEngine,
	validator *validator.BlockValidator,
	publisher events.Publisher,
	c clock.Clock,
	log *logger.Logger,
) BlockService {
	return &blockService{
		repo:      repo,
		engine:    engine,
		validator: validator,
		publisher: publisher,
		clock:     c,
		log:       log,
	}
}

func (s *blockService) Create(ctx context.Context, req *model.BlockRequest) (*model.Block, error) {
	log := logger.FromContext(ctx, s.log)

	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	block := &model.Block{
		PropertyID: req.PropertyID,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate.UTC(),
		Reason:     req.Reason,
	}

	err := s.engine.WithPropertyLock(ctx, block.PropertyID, func(txCtx context.Context) error {
		if err := s.checkAvailability(txCtx, block.PropertyID, block.Range()); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, block); err != nil {
			return apperrors.Internal("Failed to create block", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("Failed to create block", "property_id", block.PropertyID, "error", err)
		return nil, err
	}

	log.Info("Block created successfully",
		"id", block.ID,
		"property_id", block.PropertyID,
		"start_date", block.StartDate,
		"end_date", block.EndDate,
	)
	s.publish(ctx, model.EventBlockCreated, block)
	return block, nil
}

func (s *blockService) GetByID(ctx context.Context, id string) (*model.Block, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Block ID cannot be empty")
	}
	return s.load(ctx, id)
}

func (s *blockService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Block, int64, error) {
	var count int64
	var blocks []*model.Block
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.log.Error("Failed to count blocks", "error", errCount)
			errCount = apperrors.Internal("Failed to count blocks", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		blocks, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list blocks", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve blocks", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return blocks, count, nil
}

// Update moves a block, checking it the same way as Create while ignoring
// the block's own stored range.
func (s *blockService) Update(ctx context.Context, id string, req *model.BlockRequest) (*model.Block, error) {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return nil, apperrors.InvalidInput("Block ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *model.Block
	locked := []string{existing.PropertyID, req.PropertyID}
	err = s.engine.WithPropertyLocks(ctx, locked, func(txCtx context.Context) error {
		current, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if current.PropertyID != existing.PropertyID && current.PropertyID != req.PropertyID {
			return apperrors.Conflict("Block was moved to another property while processing, please retry")
		}

		current.PropertyID = req.PropertyID
		current.StartDate = req.StartDate.UTC()
		current.EndDate = req.EndDate.UTC()
		current.Reason = req.Reason

		if err := s.checkAvailability(txCtx, current.PropertyID, current.Range(), reservations.Excluding(id)); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, current); err != nil {
			return s.mapRepoError(err, id, "Failed to update block")
		}
		updated = current
		return nil
	})
	if err != nil {
		log.Warn("Failed to update block", "id", id, "error", err)
		return nil, err
	}

	log.Info("Block updated successfully", "id", id, "property_id", updated.PropertyID)
	s.publish(ctx, model.EventBlockUpdated, updated)
	return updated, nil
}

func (s *blockService) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx, s.log)

	if id == "" {
		return apperrors.InvalidInput("Block ID cannot be empty")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	err = s.engine.WithPropertyLock(ctx, existing.PropertyID, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return s.mapRepoError(err, id, "Failed to delete block")
		}
		return nil
	})
	if err != nil {
		log.Warn("Failed to delete block", "id", id, "error", err)
		return err
	}

	log.Info("Block deleted successfully", "id", id)
	s.publish(ctx, model.EventBlockDeleted, existing)
	return nil
}

// checkAvailability runs both occupancy queries and reports the block
// conflict before the booking conflict.
func (s *blockService) checkAvailability(ctx context.Context, propertyID string, r model.DateRange, opts ...reservations.CheckOption) error {
	blocked, err := s.engine.IsBlockedOnDate(ctx, propertyID, r.Start, r.End, opts...)
	if err != nil {
		return err
	}
	busy, err := s.engine.ExistsBookingOnDate(ctx, propertyID, r.Start, r.End)
	if err != nil {
		return err
	}

	switch {
	case blocked:
		return apperrors.PropertyBlocked(msgAlreadyBlocked)
	case busy:
		return apperrors.PropertyBusy(msgAlreadyBooked)
	}
	return nil
}

func (s *blockService) load(ctx context.Context, id string) (*model.Block, error) {
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve block")
	}
	return block, nil
}

func (s *blockService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, blockserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Block", id)
	}
	if errors.Is(err, blockserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid block ID format")
	}
	s.log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *blockService) publish(ctx context.Context, eventType model.OccupancyEventType, block *model.Block) {
	s.publisher.Publish(ctx, model.BlockEvent(eventType, block, s.clock.Now()))
}
