package service

import (
	"context"
	"errors"
	"fmt"

	"stackit/internal/microservices/http-api/repository"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidTarget    = errors.New("exactly one of questionId or answerId is required")
	ErrInvalidVoteKind  = errors.New("vote type must be UP or DOWN")
	ErrInvalidContent   = errors.New("invalid content")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrStoreTimeout     = errors.New("store timed out")
	ErrStoreConflict    = errors.New("store conflict")
	ErrBroadcastFailure = errors.New("broadcast failed")
)

// storeError maps repository failures onto service errors. Service errors
// returned from inside a transaction pass through untouched.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrStoreConflict, err)
	}
	return err
}
