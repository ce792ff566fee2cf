package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNotFound              = errors.New("not found")
	ErrDonorNotFound         = fmt.Errorf("donor %w", ErrNotFound)
	ErrDuplicateDonor        = errors.New("donor email already registered")
	ErrDonorHasDonations     = errors.New("donor has recorded donations")
)

// StorageError reports a failure of the underlying store: connection loss,
// constraint violation, timeout. It is never retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
