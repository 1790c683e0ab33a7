package service

import (
	"errors"
	"fmt"

	"github.com/shinyyama/artoo-backend/internal/repository"
)

var (
	// ErrValidation marks a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks an actor not entitled to the action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a transition that is not legal from the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrData wraps any failure of the underlying store.
	ErrData = errors.New("data error")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// storeErr classifies a repository error. Errors that already carry one of the
// service sentinels pass through untouched.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case isServiceErr(err):
		return err
	default:
		return fmt.Errorf("%w: %s: %v", ErrData, what, err)
	}
}

func isServiceErr(err error) bool {
	for _, s := range []error{ErrValidation, ErrUnauthorized, ErrNotFound, ErrInvalidState, ErrData} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
