package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Topics and event types exchanged on the message bus.
const (
	TopicReservationEvents = "reservation.events"
	TopicPaymentEvents     = "payment.events"

	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventPaymentRefunded      = "payment.refunded"
)

// ConfirmedEvent is published once a record has been saved.
type ConfirmedEvent struct {
	BookingID  string     `json:"booking_id"`
	PropertyID string     `json:"property_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	GuestEmail string     `json:"guest_email"`
	CheckIn    string     `json:"check_in"`
	CheckOut   string     `json:"check_out"`
	Nights     int        `json:"nights"`
	Total      int64      `json:"total"`
	Currency   string     `json:"currency"`
	Payment    string     `json:"payment_method"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// CancelledEvent is published when a confirmed record is cancelled.
type CancelledEvent struct {
	BookingID   string     `json:"booking_id"`
	CancelledBy *uuid.UUID `json:"cancelled_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// PaymentRefundedEvent is consumed from the payment service; a refund
// cancels the reservation it paid for.
type PaymentRefundedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingID  string    `json:"booking_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewConfirmedEvent builds the event for a saved record.
func NewConfirmedEvent(r *Record, at time.Time) ConfirmedEvent {
	q := r.Quote()
	return ConfirmedEvent{
		BookingID:  r.BookingID(),
		PropertyID: r.PropertyID(),
		UserID:     r.UserID(),
		GuestEmail: r.Guest().Email,
		CheckIn:    r.CheckIn().Format(DateLayout),
		CheckOut:   r.CheckOut().Format(DateLayout),
		Nights:     q.Nights,
		Total:      q.Total,
		Currency:   q.Currency,
		Payment:    string(r.Payment().Method),
		OccurredAt: at,
	}
}
