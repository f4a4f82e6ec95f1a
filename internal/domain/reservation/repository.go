package reservation

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for confirmed reservations.
type Repository interface {
	// Save stores a new record atomically. A record whose booking ID is
	// already stored is rejected with ErrDuplicateID.
	Save(ctx context.Context, record *Record) error

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error)

	// FindByBookingID returns a single record.
	FindByBookingID(ctx context.Context, bookingID string) (*Record, error)

	// UpdateStatus changes a record's status only if it currently equals from.
	UpdateStatus(ctx context.Context, bookingID string, from, to RecordStatus) error
}
