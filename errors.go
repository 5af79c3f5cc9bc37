package esmap

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/esmap/internal/db"
	"github.com/kailas-cloud/esmap/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUsage          = domain.ErrUsage
	ErrNotFound       = domain.ErrNotFound
	ErrNotRegistered  = domain.ErrNotRegistered
	ErrInvalidMapping = domain.ErrInvalidMapping
	ErrIndexNotFound  = domain.ErrIndexNotFound
)

// storeErr maps storage sentinels onto the public ones, keeping the original chain.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrDocumentNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrIndexNotFound, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}
