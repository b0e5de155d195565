package service

import (
	"errors"
	"fmt"
)

// Sentinels returned by DocumentService. Handlers map them onto status codes.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("document not found")
	ErrExternalService = errors.New("versioned store failed")
)

// ValidationError names the input that was rejected.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError prefixes err with msg. A nil err stays nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// ExternalError marks err as a versioned store failure. Only the text of err
// is kept, so store internals never leak through errors.Is.
func ExternalError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrExternalService, err)
}
