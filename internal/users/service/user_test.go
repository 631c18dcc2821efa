package service

import (
	"context"
	"testing"

	"rentals/internal/storage/memory"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"
)

func newService() UserService {
	return NewUserService(memory.NewStore().Users(), validation.New(), logger.Discard())
}

func TestCreate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	user, err := s.Create(ctx, &model.UserRequest{Name: "  Ana   Lima ", Email: " Ana@Example.COM ", Role: model.RoleGuest})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.Email != "ana@example.com" || user.Name != "Ana Lima" {
		t.Errorf("user = %+v", user)
	}

	_, err = s.Create(ctx, &model.UserRequest{Name: "Ana Again", Email: "ANA@example.com", Role: model.RoleOwner})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("duplicate email error = %v, want CONFLICT", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  model.UserRequest
	}{
		{"missing name", model.UserRequest{Email: "a@example.com", Role: model.RoleGuest}},
		{"bad email", model.UserRequest{Name: "Ana", Email: "not-an-email", Role: model.RoleGuest}},
		{"unknown role", model.UserRequest{Name: "Ana", Email: "a@example.com", Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService().Create(context.Background(), &tt.req)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("error = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestFindByIDAndRole(t *testing.T) {
	s := newService()
	ctx := context.Background()

	guest, err := s.Create(ctx, &model.UserRequest{Name: "Gil", Email: "gil@example.com", Role: model.RoleGuest})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.FindByIDAndRole(ctx, guest.ID, model.RoleGuest); err != nil {
		t.Errorf("FindByIDAndRole(guest) error = %v", err)
	}

	_, err = s.FindByIDAndRole(ctx, guest.ID, model.RoleOwner)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("wrong role error = %v, want NOT_FOUND", err)
	}
	if msg := apperrors.AsAppError(err).Message; msg == "" {
		t.Error("empty message")
	}

	_, err = s.FindByIDAndRole(ctx, "garbage", model.RoleGuest)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("invalid id error = %v, want NOT_FOUND", err)
	}

	_, err = s.GetByID(ctx, "garbage")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("GetByID(invalid) error = %v, want INVALID_INPUT", err)
	}
}

func TestGetAll(t *testing.T) {
	s := newService()
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := s.Create(ctx, &model.UserRequest{Name: "User", Email: email, Role: model.RoleGuest}); err != nil {
			t.Fatal(err)
		}
	}

	users, total, err := s.GetAll(ctx, 2, 1)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if total != 3 || len(users) != 2 {
		t.Errorf("GetAll() = %d users, total %d", len(users), total)
	}
}

func TestUpdate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	user, err := s.Create(ctx, &model.UserRequest{Name: "Ana", Email: "ana@example.com", Role: model.RoleGuest})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, &model.UserRequest{Name: "Bea", Email: "bea@example.com", Role: model.RoleGuest}); err != nil {
		t.Fatal(err)
	}

	updated, err := s.Update(ctx, user.ID, &model.UserRequest{
		Name: " Ana  Lima ", Email: "ANA.LIMA@example.com", Role: model.RoleGuest, Phone: "+351912345678",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Ana Lima" || updated.Email != "ana.lima@example.com" || updated.Phone != "+351912345678" {
		t.Errorf("updated = %+v", updated)
	}

	got, err := s.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ana.lima@example.com" || !got.CreatedAt.Equal(user.CreatedAt) {
		t.Errorf("stored = %+v", got)
	}

	tests := []struct {
		name string
		id   string
		req  model.UserRequest
		code string
	}{
		{"role change", user.ID, model.UserRequest{Name: "Ana", Email: "ana@example.com", Role: model.RoleOwner}, apperrors.CodeBusinessRule},
		{"email taken", user.ID, model.UserRequest{Name: "Ana", Email: "bea@example.com", Role: model.RoleGuest}, apperrors.CodeConflict},
		{"invalid body", user.ID, model.UserRequest{Name: "Ana", Email: "nope", Role: model.RoleGuest}, apperrors.CodeValidation},
		{"unknown user", "507f1f77bcf86cd7994390aa", model.UserRequest{Name: "Ana", Email: "x@example.com", Role: model.RoleGuest}, apperrors.CodeNotFound},
		{"bad id", "garbage", model.UserRequest{Name: "Ana", Email: "x@example.com", Role: model.RoleGuest}, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(ctx, tt.id, &tt.req)
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	_, err = s.Update(ctx, user.ID, &model.UserRequest{Name: "Ana", Email: "ana@example.com", Role: model.RoleOwner})
	if msg := apperrors.AsAppError(err).Message; msg != "Cannot change user type, create other user instead" {
		t.Errorf("role change message = %q", msg)
	}
}
