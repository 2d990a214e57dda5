package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "matholymp/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{UserNotFound, "User not found"},
		{ScoresFrozen, "Scores cannot be entered after medal boundaries are set"},
		{BoundariesInvalid, "Medal boundaries must be nonincreasing"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, 200},
		{InvalidParams, 400},
		{ValidationFailed, 400},
		{PersonInvalid, 400},
		{ScoresIncomplete, 400},
		{Unauthorized, 401},
		{TokenExpired, 401},
		{Forbidden, 403},
		{PermissionDenied, 403},
		{CountryAccessDenied, 403},
		{CountryNotFound, 404},
		{CountryCodeExists, 409},
		{RoleAlreadyFilled, 409},
		{LoginLocked, 429},
		{PersonCreateFailed, 500},
		{InternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CountryCodeExists, "Country code %s already in use", "GBR")

	want := "Country code GBR already in use"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if err.Code != CountryCodeExists {
		t.Errorf("Code = %v, want %v", err.Code, CountryCodeExists)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("connection refused")
	wrappedErr := Wrap(originalErr, DatabaseError)

	if wrappedErr.Code != DatabaseError {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, DatabaseError)
	}
	if wrappedErr.Unwrap() != originalErr {
		t.Error("Unwrap() should return original error")
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIs(t *testing.T) {
	err := New(UserNotFound)

	if !Is(err, UserNotFound) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, DatabaseError) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, UserNotFound) {
		t.Error("Is() should return false for nil error")
	}
	if !Is(fmt.Errorf("outer: %w", err), UserNotFound) {
		t.Error("Is() should see through wrapping")
	}
}

func TestValidationErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError("given_name", "No given name specified")
		if err.Code != ValidationFailed {
			t.Fatalf("expected ValidationFailed, got %v", err.Code)
		}
		if err.Error() != "No given name specified" {
			t.Fatalf("expected reason as message, got %q", err.Error())
		}
		if err.Details["field"] != "given_name" {
			t.Fatalf("expected field detail, got %v", err.Details["field"])
		}
	})

	t.Run("Validationf", func(t *testing.T) {
		err := Validationf(ScoresInvalid, "scores", "Invalid score specified for %s", "GBR1")
		if err.Code != ScoresInvalid {
			t.Fatalf("expected ScoresInvalid, got %v", err.Code)
		}
		if err.Error() != "Invalid score specified for GBR1" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})
}
