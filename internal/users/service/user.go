package service

import (
	"context"
	"errors"
	userserrors "rentals/internal/users/errors"
	"rentals/internal/users/repository"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/sanitizer"
	"rentals/pkg/validation"
	"sync"
)

type UserService interface {
	Create(ctx context.Context, req *model.UserRequest) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	// Update rewrites name, email and phone. The role is fixed at creation.
	Update(ctx context.Context, id string, req *model.UserRequest) (*model.User, error)
	// FindByIDAndRole returns NOT_FOUND when the user is missing or has
	// another role.
	FindByIDAndRole(ctx context.Context, id string, role model.UserRole) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validation.Validator
	log       *logger.Logger
}

func NewUserService(repo repository.UserRepository, validator *validation.Validator, log *logger.Logger) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		log:       log,
	}
}

func (s *userService) Create(ctx context.Context, req *model.UserRequest) (*model.User, error) {
	sanitize(req)
	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("User validation failed", "error", err)
		return nil, validation.AppError("User validation failed", err)
	}

	user := &model.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
		Phone: req.Phone,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("A user with this email already exists")
		}
		s.log.Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.log.Info("User created successfully", "id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return users, count, nil
}

func (s *userService) Update(ctx context.Context, id string, req *model.UserRequest) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sanitize(req)
	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("User validation failed", "id", id, "error", err)
		return nil, validation.AppError("User validation failed", err)
	}
	if req.Role != user.Role {
		return nil, apperrors.BusinessRule("Cannot change user type, create other user instead")
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Phone = req.Phone
	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, userserrors.ErrDuplicateEmail):
			return nil, apperrors.Conflict("A user with this email already exists")
		case errors.Is(err, userserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("User", id)
		}
		s.log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}

	s.log.Info("User updated successfully", "id", user.ID)
	return user, nil
}

func (s *userService) FindByIDAndRole(ctx context.Context, id string, role model.UserRole) (*model.User, error) {
	resource := roleResource(role)

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID(resource, id)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	if user.Role != role {
		s.log.Debug("User has unexpected role", "id", id, "role", user.Role, "expected", role)
		return nil, apperrors.NotFoundWithID(resource, id)
	}

	return user, nil
}

func roleResource(role model.UserRole) string {
	switch role {
	case model.RoleGuest:
		return "Guest"
	case model.RoleOwner:
		return "Owner"
	default:
		return "User"
	}
}

func sanitize(req *model.UserRequest) {
	req.Name = sanitizer.NormalizeName(req.Name)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if req.Phone != "" {
		if phone := sanitizer.NormalizePhone(req.Phone); phone != "" {
			req.Phone = phone
		}
	}
}
