// Package property describes the listings a reservation can be made for.
// The catalog that owns them is external; this service only looks them up.
package property

import (
	"context"
	"fmt"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
)

// Status values of a listing.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Property is a bookable listing.
type Property struct {
	ID          string
	Title       string
	Location    string
	City        string
	NightlyRate int64
	MaxGuests   int
	Status      string
}

// IsBookable reports whether new reservations may be made.
func (p Property) IsBookable() bool {
	return p.Status == "" || p.Status == StatusActive
}

// CheckGuests rejects guest counts the listing cannot host. A listing
// without a declared capacity accepts any positive count.
func (p Property) CheckGuests(guests int) error {
	if guests < 1 {
		return apperr.NewFieldValidationError("at least one guest is required",
			map[string]string{"guests": "required"})
	}
	if p.MaxGuests > 0 && guests > p.MaxGuests {
		return apperr.NewFieldValidationError(
			fmt.Sprintf("%s hosts at most %d guests", p.Title, p.MaxGuests),
			map[string]string{"guests": "exceeds_capacity"})
	}
	return nil
}

// Catalog resolves property identifiers.
type Catalog interface {
	// FindByID returns the property or an *apperr.NotFoundError.
	FindByID(ctx context.Context, id string) (*Property, error)
}
