// Package e holds the error taxonomy shared by the inventory core.
//
// Every failure surfaced by a service wraps exactly one of the kind sentinels
// below, so callers classify errors with errors.Is.
package e

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input. Never mutates state.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to a product that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock marks an OUT movement that would drive quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPersistence marks a failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateSKU is a validation error raised when a live product already owns the SKU.
	ErrDuplicateSKU = fmt.Errorf("%w: sku already exists", ErrValidation)
	// ErrQuantityPatch is a validation error raised when a field edit tries to set quantity.
	ErrQuantityPatch = fmt.Errorf("%w: quantity can only change through stock movements", ErrValidation)
)

// Wrap prefixes err with the operation name.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence marks err as a store failure while keeping it inspectable.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// InsufficientStock reports how much was on hand versus requested.
func InsufficientStock(available, requested int) error {
	return fmt.Errorf("%w: %d available, %d requested", ErrInsufficientStock, available, requested)
}
