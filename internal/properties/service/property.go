package service

import (
	"context"
	"errors"
	propertieserrors "rentals/internal/properties/errors"
	"rentals/internal/properties/repository"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"rentals/pkg/validation"
	"sync"
)

// OwnerLookup is the part of the user service properties depend on.
type OwnerLookup interface {
	FindByIDAndRole(ctx context.Context, id string, role model.UserRole) (*model.User, error)
}

type PropertyService interface {
	Create(ctx context.Context, req *model.PropertyRequest) (*model.Property, error)
	GetByID(ctx context.Context, id string) (*model.Property, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error)
	// Update replaces name, location and owner. The new owner must exist
	// with the owner role.
	Update(ctx context.Context, id string, req *model.PropertyRequest) (*model.Property, error)
}

type propertyService struct {
	repo      repository.PropertyRepository
	owners    OwnerLookup
	validator *validation.Validator
	log       *logger.Logger
}

func NewPropertyService(repo repository.PropertyRepository, owners OwnerLookup, validator *validation.Validator, log *logger.Logger) PropertyService {
	return &propertyService{
		repo:      repo,
		owners:    owners,
		validator: validator,
		log:       log,
	}
}

func (s *propertyService) Create(ctx context.Context, req *model.PropertyRequest) (*model.Property, error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Location = sanitizer.NormalizeLocation(req.Location)

	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("Property validation failed", "error", err)
		return nil, validation.AppError("Property validation failed", err)
	}

	if _, err := s.owners.FindByIDAndRole(ctx, req.OwnerID, model.RoleOwner); err != nil {
		return nil, err
	}

	property := &model.Property{
		OwnerID:  req.OwnerID,
		Name:     req.Name,
		Location: req.Location,
	}
	if err := s.repo.Create(ctx, property); err != nil {
		s.log.Error("Failed to create property", "error", err)
		return nil, apperrors.Internal("Failed to create property", err)
	}

	s.log.Info("Property created successfully", "id", property.ID, "owner_id", property.OwnerID)
	return property, nil
}

func (s *propertyService) Update(ctx context.Context, id string, req *model.PropertyRequest) (*model.Property, error) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Location = sanitizer.NormalizeLocation(req.Location)

	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("Property validation failed", "id", id, "error", err)
		return nil, validation.AppError("Property validation failed", err)
	}

	property, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.owners.FindByIDAndRole(ctx, req.OwnerID, model.RoleOwner); err != nil {
		return nil, err
	}

	property.OwnerID = req.OwnerID
	property.Name = req.Name
	property.Location = req.Location
	if err := s.repo.Update(ctx, property); err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		s.log.Error("Failed to update property", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update property", err)
	}

	s.log.Info("Property updated successfully", "id", property.ID, "owner_id", property.OwnerID)
	return property, nil
}

func (s *propertyService) GetByID(ctx context.Context, id string) (*model.Property, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Property ID cannot be empty")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}

	return property, nil
}

func (s *propertyService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Property, int64, error) {
	var count int64
	var properties []*model.Property
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.log.Error("Failed to count properties", "error", errCount)
			errCount = apperrors.Internal("Failed to count properties", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		properties, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list properties", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve properties", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return properties, count, nil
}
