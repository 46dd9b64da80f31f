package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrNoQuestionAvailable = errors.New("no question available")
	ErrNotPaired           = errors.New("user is not paired")
	ErrAlreadyPaired       = errors.New("user is already paired")
	ErrConflict            = errors.New("conflicting write")
	// ErrOfflineUnreachable is returned by an OfflineDelivery that has no
	// channel for the recipient. It is expected and not worth a warning.
	ErrOfflineUnreachable = errors.New("recipient has no offline channel")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (err *ValidationError) Error() string {
	return err.Field + ": " + err.Reason
}

func (err *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func translateLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
