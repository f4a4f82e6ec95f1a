package reservation

import (
	"errors"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
)

// retryMessage is the only text shown to users for persistence or id failures.
const retryMessage = "we could not complete your booking, please try again"

var (
	// ErrInvalidRange is returned when check-out is not strictly after
	// check-in or either date is missing.
	ErrInvalidRange = apperr.NewFieldValidationError(
		"check-out date must be after check-in date",
		map[string]string{FieldCheckOut: string(KindInvalidRange)},
	)

	// ErrDuplicateID is returned by a Repository when a record with the same
	// booking ID already exists.
	ErrDuplicateID = apperr.NewConflictError("booking id already exists")

	// ErrBookingFailed is returned when no unique booking ID could be issued.
	ErrBookingFailed = errors.New("booking failed")

	// ErrPersistence marks a failed save. The workflow stays in payment
	// selection and confirm may be retried.
	ErrPersistence = errors.New("reservation could not be persisted")
)
