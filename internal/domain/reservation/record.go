package reservation

import (
	"fmt"
	"time"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/google/uuid"
)

// RecordStatus is the lifecycle state of a confirmed reservation.
type RecordStatus string

const (
	RecordStatusConfirmed RecordStatus = "confirmed"
	RecordStatusCancelled RecordStatus = "cancelled"
)

// IsValid returns true if the status is recognized.
func (s RecordStatus) IsValid() bool {
	return s == RecordStatusConfirmed || s == RecordStatusCancelled
}

// ParseRecordStatus converts a string to a RecordStatus.
func ParseRecordStatus(s string) (RecordStatus, error) {
	status := RecordStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}

// Record is a confirmed reservation. Only its status may change after
// creation, and only from confirmed to cancelled.
type Record struct {
	id            uuid.UUID
	bookingID     string
	userID        *uuid.UUID
	propertyID    string
	propertyTitle string
	guest         GuestDetails
	payment       PaymentSummary
	quote         Quote
	checkIn       time.Time
	checkOut      time.Time
	guests        int
	status        RecordStatus
	createdAt     time.Time
}

// RecordParams are the fields of a new or stored record.
type RecordParams struct {
	ID            uuid.UUID
	BookingID     string
	UserID        *uuid.UUID
	PropertyID    string
	PropertyTitle string
	Guest         GuestDetails
	Payment       PaymentSummary
	Quote         Quote
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	Status        RecordStatus
	CreatedAt     time.Time
}

func newConfirmedRecord(p RecordParams) *Record {
	p.ID = uuid.New()
	p.Status = RecordStatusConfirmed
	return ReconstructRecord(p)
}

// ReconstructRecord rebuilds a Record from persistence data (no validation).
func ReconstructRecord(p RecordParams) *Record {
	return &Record{
		id:            p.ID,
		bookingID:     p.BookingID,
		userID:        p.UserID,
		propertyID:    p.PropertyID,
		propertyTitle: p.PropertyTitle,
		guest:         p.Guest,
		payment:       p.Payment,
		quote:         p.Quote,
		checkIn:       p.CheckIn,
		checkOut:      p.CheckOut,
		guests:        p.Guests,
		status:        p.Status,
		createdAt:     p.CreatedAt,
	}
}

func (r *Record) ID() uuid.UUID           { return r.id }
func (r *Record) BookingID() string       { return r.bookingID }
func (r *Record) UserID() *uuid.UUID      { return r.userID }
func (r *Record) PropertyID() string      { return r.propertyID }
func (r *Record) PropertyTitle() string   { return r.propertyTitle }
func (r *Record) Guest() GuestDetails     { return r.guest }
func (r *Record) Payment() PaymentSummary { return r.payment }
func (r *Record) Quote() Quote            { return r.quote }
func (r *Record) CheckIn() time.Time      { return r.checkIn }
func (r *Record) CheckOut() time.Time     { return r.checkOut }
func (r *Record) Guests() int             { return r.guests }
func (r *Record) Status() RecordStatus    { return r.status }
func (r *Record) CreatedAt() time.Time    { return r.createdAt }

// IsOwnedBy reports whether the record belongs to userID.
func (r *Record) IsOwnedBy(userID uuid.UUID) bool {
	return r.userID != nil && *r.userID == userID
}

// Cancel moves a confirmed record to cancelled.
func (r *Record) Cancel() error {
	if r.status != RecordStatusConfirmed {
		return apperr.NewInvalidStateError(string(r.status), string(RecordStatusCancelled))
	}
	r.status = RecordStatusCancelled
	return nil
}
