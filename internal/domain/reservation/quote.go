package reservation

import (
	"fmt"
	"time"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Default fee schedule in minor currency units.
const (
	DefaultCleaningFee int64 = 1500
	DefaultServiceFee  int64 = 1000
	DefaultCurrency          = "KES"
)

// QuoteInput is what a quote is derived from.
type QuoteInput struct {
	PropertyID  string    `json:"property_id"`
	NightlyRate int64     `json:"nightly_rate"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
}

// Quote is the itemized price of a stay. Build it with NewQuote or a
// QuoteCalculator so Subtotal and Total always match their components.
type Quote struct {
	Nights      int    `json:"nights"`
	NightlyRate int64  `json:"nightly_rate"`
	Subtotal    int64  `json:"subtotal"`
	CleaningFee int64  `json:"cleaning_fee"`
	ServiceFee  int64  `json:"service_fee"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

// NewQuote derives subtotal and total from rate, nights and fees.
func NewQuote(nightlyRate int64, nights int, cleaningFee, serviceFee int64, currency string) Quote {
	subtotal := nightlyRate * int64(nights)
	return Quote{
		Nights:      nights,
		NightlyRate: nightlyRate,
		Subtotal:    subtotal,
		CleaningFee: cleaningFee,
		ServiceFee:  serviceFee,
		Total:       subtotal + cleaningFee + serviceFee,
		Currency:    currency,
	}
}

// QuoteCalculator prices a stay.
type QuoteCalculator interface {
	ComputeQuote(nightlyRate int64, checkIn, checkOut time.Time) (Quote, error)
}

// FeeSchedule holds the fixed per-booking fees of a deployment.
type FeeSchedule struct {
	CleaningFee int64
	ServiceFee  int64
	Currency    string
}

// DefaultFeeSchedule returns the standard fees.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		CleaningFee: DefaultCleaningFee,
		ServiceFee:  DefaultServiceFee,
		Currency:    DefaultCurrency,
	}
}

// FixedFeeCalculator charges nightly rate times nights plus flat fees.
type FixedFeeCalculator struct {
	fees FeeSchedule
}

// NewFixedFeeCalculator creates a FixedFeeCalculator.
func NewFixedFeeCalculator(fees FeeSchedule) *FixedFeeCalculator {
	return &FixedFeeCalculator{fees: fees}
}

// ComputeQuote returns the quote for a stay from checkIn to checkOut.
//
// Dates are reduced to their calendar day, so the night count is always a
// whole number: 2024-06-01 to 2024-06-04 is three nights.
func (c *FixedFeeCalculator) ComputeQuote(nightlyRate int64, checkIn, checkOut time.Time) (Quote, error) {
	if nightlyRate <= 0 {
		return Quote{}, apperr.NewValidationError(fmt.Sprintf("nightly rate must be positive, got %d", nightlyRate))
	}
	nights, err := NightsBetween(checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	return NewQuote(nightlyRate, nights, c.fees.CleaningFee, c.fees.ServiceFee, c.fees.Currency), nil
}

// NightsBetween counts the nights of a stay, failing with ErrInvalidRange
// unless checkOut falls on a later calendar day than checkIn.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, ErrInvalidRange
	}
	in, out := CalendarDate(checkIn), CalendarDate(checkOut)
	if !out.After(in) {
		return 0, ErrInvalidRange
	}
	// Unix seconds instead of Sub: a Duration saturates near 292 years.
	return int((out.Unix() - in.Unix()) / secondsPerDay), nil
}

const secondsPerDay = 24 * 60 * 60

// CalendarDate strips the clock and zone from t, keeping its wall-clock day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date. Empty or malformed input fails with
// ErrInvalidRange.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrInvalidRange
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidRange
	}
	return t, nil
}
