package validation

import (
	"errors"
	"rentals/pkg/model"
	"strings"
	"testing"
)

const validObjectID = "507f1f77bcf86cd799439011"

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		input      any
		wantFields []string
	}{
		{
			name:  "valid booking request",
			input: &model.BookingRequest{GuestID: validObjectID, PropertyID: validObjectID},
		},
		{
			name:       "booking request missing ids",
			input:      &model.BookingRequest{},
			wantFields: []string{"guest_id", "property_id"},
		},
		{
			name:       "booking request with malformed id",
			input:      &model.BookingRequest{GuestID: "nope", PropertyID: validObjectID},
			wantFields: []string{"guest_id"},
		},
		{
			name:       "user request with bad email and role",
			input:      &model.UserRequest{Name: "Ana", Email: "not-an-email", Role: "admin"},
			wantFields: []string{"email", "role"},
		},
		{
			name:       "block reason too long",
			input:      &model.BlockRequest{PropertyID: validObjectID, Reason: strings.Repeat("x", 201)},
			wantFields: []string{"reason"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() unexpected error = %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			details := verrs.Details()
			for _, field := range tt.wantFields {
				if _, ok := details[field]; !ok {
					t.Errorf("missing error for field %q in %v", field, details)
				}
			}
			if len(verrs) != len(tt.wantFields) {
				t.Errorf("got %d errors, want %d: %v", len(verrs), len(tt.wantFields), verrs)
			}
		})
	}
}

func TestTranslatedMessages(t *testing.T) {
	err := New().Struct(&model.UserRequest{Email: "a@b.co", Role: model.RoleGuest})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if got := verrs.Details()["name"]; got != "name is required" {
		t.Errorf("message = %q, want %q", got, "name is required")
	}
	if !strings.HasPrefix(verrs.Error(), "validation failed: 1 error(s)") {
		t.Errorf("Error() = %q", verrs.Error())
	}
}
