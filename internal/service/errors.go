package service

import (
	"errors"
	"fmt"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/e"
	"go-inventory-ledger/pkg/validator"
)

// classify keeps errors that already carry a kind and marks the rest as
// store failures.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, e.ErrValidation),
		errors.Is(err, e.ErrNotFound),
		errors.Is(err, e.ErrInsufficientStock),
		errors.Is(err, e.ErrPersistence):
		return err
	case errors.Is(err, repository.ErrRecordNotFound):
		return fmt.Errorf("%w: product", e.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateKey):
		return e.ErrDuplicateSKU
	default:
		return e.Persistence(err)
	}
}

// validationError turns validator output into an ErrValidation naming the first failed field.
func validationError(errs []*validator.ErrorResponse) error {
	first := errs[0]
	return e.Validationf("Field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}
