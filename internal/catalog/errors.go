package catalog

import (
	"errors"
	"fmt"

	"playscribe/internal/services"
)

var (
	// ErrInvalidTransition is returned when a status write would break a lifecycle invariant.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrDuplicate is returned when an external id is already recorded.
	ErrDuplicate = errors.New("record already exists")
)

func notFound(kind string, key any) error {
	return fmt.Errorf("%w: %s %v", services.ErrNotFound, kind, key)
}
