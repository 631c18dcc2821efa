package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Booking not found"},
			expected: "NOT_FOUND: Booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
	if appErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", appErr.StatusCode(), http.StatusInternalServerError)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Property", "p1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"invalid date range", InvalidDateRange(errors.New("dates missing")), CodeInvalidDateRange, http.StatusBadRequest},
		{"property busy", PropertyBusy("booked"), CodePropertyBusy, http.StatusUnprocessableEntity},
		{"property blocked", PropertyBlocked("blocked"), CodePropertyBlocked, http.StatusUnprocessableEntity},
		{"business rule", BusinessRule("already cancelled"), CodeBusinessRule, http.StatusUnprocessableEntity},
		{"lock timeout", LockTimeout("Property", "p1"), CodeLockTimeout, http.StatusServiceUnavailable},
		{"conflict", Conflict("email taken"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError},
		{"unavailable", Unavailable("Kafka"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
		})
	}
}

func TestInvalidDateRange_KeepsReason(t *testing.T) {
	reason := errors.New("initial date should be in the present or in the future")
	err := InvalidDateRange(reason)

	if !errors.Is(err, reason) {
		t.Errorf("expected errors.Is to find the range rule")
	}
	if err.Message != reason.Error() {
		t.Errorf("expected message %q, got %q", reason.Error(), err.Message)
	}
}

func TestRetryable(t *testing.T) {
	if !LockTimeout("Property", "p1").Retryable() {
		t.Errorf("lock timeout should be retryable")
	}
	if PropertyBusy("booked").Retryable() {
		t.Errorf("busy conflict must not be retryable")
	}
	if InvalidDateRange(errors.New("x")).Retryable() {
		t.Errorf("invalid input must not be retryable")
	}
}

func TestIsAppError_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("transaction failed: %w", PropertyBlocked("blocked"))

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through fmt.Errorf wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
	if !HasCode(wrapped, CodePropertyBlocked) {
		t.Errorf("HasCode() should match wrapped code")
	}
	if HasCode(wrapped, CodePropertyBusy) {
		t.Errorf("HasCode() should not match a different code")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Block")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Booking", "12345").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "12345") {
		t.Errorf("ToJSON() should contain details")
	}
}
