package repo

import (
	"errors"
	"fmt"
)

// ValidationError is returned for malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when a referenced row does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ReferentialIntegrityError is returned when a delete is blocked by rows
// that still reference the target.
type ReferentialIntegrityError struct {
	Entity    string
	ID        uint
	Dependent string
	Count     int64
}

func (e *ReferentialIntegrityError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("%s %d is referenced by %d %s", e.Entity, e.ID, e.Count, e.Dependent)
	}
	return fmt.Sprintf("%s %d is referenced by %s", e.Entity, e.ID, e.Dependent)
}

// InsufficientStockError is returned when a sale asks for more units than
// are on hand. Current is the stock at the time of the check.
type InsufficientStockError struct {
	ItemID    uint
	Current   int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for card %d: current stock %d, requested %d", e.ItemID, e.Current, e.Requested)
}

// StorageError wraps a failure of the underlying store. Any partial
// mutation has been rolled back by the time it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Error kinds reported to metrics and used by callers that only need a label.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindReferential  = "referential_integrity"
	KindInsufficient = "insufficient_stock"
	KindStorage      = "storage"
)

// ErrorKind classifies err. It returns "" for nil.
func ErrorKind(err error) string {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		referential  *ReferentialIntegrityError
		insufficient *InsufficientStockError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &referential):
		return KindReferential
	case errors.As(err, &insufficient):
		return KindInsufficient
	default:
		return KindStorage
	}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}
