package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{name: "with field", err: &ValidationError{Field: "content", Message: "content is required"}, want: "invalid content: content is required"},
		{name: "without field", err: &ValidationError{Message: "nothing to do"}, want: "nothing to do"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
			if errors.Is(tt.err, ErrNotFound) {
				t.Error("ValidationError should not match ErrNotFound")
			}
		})
	}

	// The field survives wrapping
	wrapped := WrapError(&ValidationError{Field: "id", Message: `invalid document id "../x"`}, "failed to update document")
	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Field != "id" {
		t.Errorf("errors.As() did not recover ValidationError from %v", wrapped)
	}
}

func TestWrapError(t *testing.T) {
	if got := WrapError(nil, "failed to read document"); got != nil {
		t.Errorf("WrapError(nil) = %v, want nil", got)
	}

	notFound := fmt.Errorf("document a: %w", ErrNotFound)
	got := WrapError(notFound, "failed to read document")
	if got.Error() != "failed to read document: document a: document not found" {
		t.Errorf("WrapError() = %q", got.Error())
	}
	if !errors.Is(got, ErrNotFound) {
		t.Error("WrapError() should keep ErrNotFound matchable")
	}
}

func TestExternalError(t *testing.T) {
	if got := ExternalError(nil); got != nil {
		t.Errorf("ExternalError(nil) = %v, want nil", got)
	}

	cause := errors.New("index.lock exists")
	got := ExternalError(cause)
	if !errors.Is(got, ErrExternalService) {
		t.Error("ExternalError() should match ErrExternalService")
	}
	if errors.Is(got, cause) {
		t.Error("ExternalError() should not expose the cause")
	}
	if got.Error() != "versioned store failed: index.lock exists" {
		t.Errorf("ExternalError() = %q", got.Error())
	}
}
