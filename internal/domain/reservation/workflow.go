package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxIDAttempts bounds booking ID regeneration on duplicates.
const DefaultMaxIDAttempts = 3

// Dependencies are the collaborators a Workflow is built with.
type Dependencies struct {
	Calculator    QuoteCalculator
	Validator     StepValidator
	IDs           IDGenerator
	Repository    Repository
	Now           func() time.Time
	MaxIDAttempts int
	Logger        *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.MaxIDAttempts < 1 {
		d.MaxIDAttempts = DefaultMaxIDAttempts
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// StartParams describes the stay a workflow books.
type StartParams struct {
	PropertyID    string
	PropertyTitle string
	NightlyRate   int64
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	UserID        *uuid.UUID
}

// QuoteChange holds the inputs to re-price with. Nil fields keep their
// current value.
type QuoteChange struct {
	CheckIn     *time.Time
	CheckOut    *time.Time
	NightlyRate *int64
	Guests      *int
}

// Draft is a read-only view of a workflow's in-progress state.
type Draft struct {
	ID            uuid.UUID       `json:"id"`
	Step          Step            `json:"step"`
	StepName      string          `json:"step_name"`
	PropertyID    string          `json:"property_id"`
	PropertyTitle string          `json:"property_title"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	Guests        int             `json:"guests"`
	Quote         Quote           `json:"quote"`
	GuestDetails  *GuestDetails   `json:"guest_details,omitempty"`
	Payment       *PaymentSummary `json:"payment,omitempty"`
	BookingID     string          `json:"booking_id,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Workflow drives one booking attempt from guest details to a confirmed
// record. A Workflow is not safe for concurrent use; callers serialize
// transitions on the same instance.
type Workflow struct {
	deps Dependencies

	id            uuid.UUID
	userID        *uuid.UUID
	step          Step
	propertyTitle string
	quoteInput    QuoteInput
	guests        int
	quote         Quote
	guest         *GuestDetails
	payment       *PaymentSelection
	record        *Record
	createdAt     time.Time
	updatedAt     time.Time
}

// StartWorkflow begins a workflow at guest-info collection with an initial quote.
func StartWorkflow(deps Dependencies, p StartParams) (*Workflow, error) {
	deps = deps.withDefaults()
	if deps.Calculator == nil || deps.Validator == nil || deps.IDs == nil || deps.Repository == nil {
		return nil, errors.New("reservation workflow: missing dependency")
	}
	if p.PropertyID == "" {
		return nil, apperr.NewFieldValidationError("property is required",
			map[string]string{"property_id": string(KindRequired)})
	}
	if p.Guests < 1 {
		return nil, apperr.NewFieldValidationError("at least one guest is required",
			map[string]string{FieldGuests: string(KindRequired)})
	}

	input := QuoteInput{
		PropertyID:  p.PropertyID,
		NightlyRate: p.NightlyRate,
		CheckIn:     p.CheckIn,
		CheckOut:    p.CheckOut,
	}
	quote, err := deps.Calculator.ComputeQuote(input.NightlyRate, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}

	now := deps.Now()
	return &Workflow{
		deps:          deps,
		id:            uuid.New(),
		userID:        p.UserID,
		step:          StepCollectingGuestInfo,
		propertyTitle: p.PropertyTitle,
		quoteInput:    input,
		guests:        p.Guests,
		quote:         quote,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ID returns the workflow's identifier.
func (w *Workflow) ID() uuid.UUID { return w.id }

// Step returns the current step.
func (w *Workflow) Step() Step { return w.step }

// UserID returns the user the workflow books for, or nil for anonymous guests.
func (w *Workflow) UserID() *uuid.UUID { return w.userID }

// Quote returns the current quote.
func (w *Workflow) Quote() Quote { return w.quote }

// QuoteInput returns the inputs of the current quote.
func (w *Workflow) QuoteInput() QuoteInput { return w.quoteInput }

// Record returns the confirmed record, or nil before confirmation.
func (w *Workflow) Record() *Record { return w.record }

// UpdatedAt returns the time of the last successful transition.
func (w *Workflow) UpdatedAt() time.Time { return w.updatedAt }

// Snapshot returns a copy of the draft for rendering.
func (w *Workflow) Snapshot() Draft {
	d := Draft{
		ID:            w.id,
		Step:          w.step,
		StepName:      w.step.String(),
		PropertyID:    w.quoteInput.PropertyID,
		PropertyTitle: w.propertyTitle,
		CheckIn:       w.quoteInput.CheckIn.Format(DateLayout),
		CheckOut:      w.quoteInput.CheckOut.Format(DateLayout),
		Guests:        w.guests,
		Quote:         w.quote,
		UpdatedAt:     w.updatedAt,
	}
	if w.guest != nil {
		g := *w.guest
		d.GuestDetails = &g
	}
	if w.payment != nil {
		s := w.payment.Summary()
		d.Payment = &s
	}
	if w.record != nil {
		d.BookingID = w.record.BookingID()
	}
	return d
}

// AdvanceFromGuestInfo validates the guest details and, when every field
// passes, stores them and moves to payment selection. On failure the
// workflow stays put and the error lists each failing field.
func (w *Workflow) AdvanceFromGuestInfo(candidate GuestDetails) error {
	if err := w.require(StepCollectingGuestInfo, StepSelectingPayment); err != nil {
		return err
	}

	result := w.deps.Validator.ValidateGuestStep(candidate)
	if !result.Valid() {
		return result.Err("guest details are invalid")
	}

	guest := candidate.Normalized()
	w.guest = &guest
	w.moveTo(StepSelectingPayment)
	return nil
}

// ReturnToGuestInfo goes back to guest details, keeping what was entered.
func (w *Workflow) ReturnToGuestInfo() error {
	if err := w.require(StepSelectingPayment, StepCollectingGuestInfo); err != nil {
		return err
	}
	w.moveTo(StepCollectingGuestInfo)
	return nil
}

// SelectPaymentMethod records the current choice without validating it.
// The choice can be revised any number of times before confirming.
func (w *Workflow) SelectPaymentMethod(selection PaymentSelection) error {
	if w.step != StepSelectingPayment {
		return apperr.NewInvalidStateError(w.step.String(), "select_payment_method")
	}
	sel := selection
	w.payment = &sel
	w.updatedAt = w.deps.Now()
	return nil
}

// Confirm validates the payment selection, issues a booking ID and saves
// the record. The workflow only becomes Confirmed once the save succeeds;
// every failure leaves it in payment selection with the draft intact.
//
// Duplicate booking IDs are retried internally up to MaxIDAttempts times.
// Other save failures are not retried so that an external payment is never
// recorded twice.
func (w *Workflow) Confirm(ctx context.Context, candidate PaymentSelection) (*Record, error) {
	if err := w.require(StepSelectingPayment, StepConfirmed); err != nil {
		return nil, err
	}

	sel := candidate
	w.payment = &sel

	result := w.deps.Validator.ValidatePaymentStep(sel)
	if !result.Valid() {
		return nil, result.Err("payment details are invalid")
	}
	if w.guest == nil {
		return nil, apperr.NewInvalidStateError(w.step.String(), StepConfirmed.String())
	}

	now := w.deps.Now()
	for attempt := 1; attempt <= w.deps.MaxIDAttempts; attempt++ {
		bookingID, err := w.deps.IDs.NextID(now.Year())
		if err != nil {
			return nil, apperr.NewRetryableError(retryMessage, fmt.Errorf("%w: %v", ErrBookingFailed, err))
		}

		record := newConfirmedRecord(RecordParams{
			BookingID:     bookingID,
			UserID:        w.userID,
			PropertyID:    w.quoteInput.PropertyID,
			PropertyTitle: w.propertyTitle,
			Guest:         *w.guest,
			Payment:       sel.Summary(),
			Quote:         w.quote,
			CheckIn:       CalendarDate(w.quoteInput.CheckIn),
			CheckOut:      CalendarDate(w.quoteInput.CheckOut),
			Guests:        w.guests,
			CreatedAt:     now,
		})

		err = w.deps.Repository.Save(ctx, record)
		switch {
		case err == nil:
			w.record = record
			w.moveTo(StepConfirmed)
			return record, nil
		case errors.Is(err, ErrDuplicateID):
			w.deps.Logger.Warn("booking id collision, regenerating",
				zap.String("workflow_id", w.id.String()),
				zap.String("booking_id", bookingID),
				zap.Int("attempt", attempt),
			)
			continue
		default:
			return nil, apperr.NewRetryableError(retryMessage, fmt.Errorf("%w: %v", ErrPersistence, err))
		}
	}

	return nil, apperr.NewRetryableError(retryMessage,
		fmt.Errorf("%w: no unique booking id after %d attempts", ErrBookingFailed, w.deps.MaxIDAttempts))
}

// RecomputeQuote re-prices the draft with the changed inputs. The quote of
// a confirmed workflow is frozen. A failed recompute leaves the previous
// inputs and quote untouched.
func (w *Workflow) RecomputeQuote(change QuoteChange) (Quote, error) {
	if w.step.IsTerminal() {
		return Quote{}, apperr.NewInvalidStateError(w.step.String(), "recompute_quote")
	}

	input := w.quoteInput
	if change.CheckIn != nil {
		input.CheckIn = *change.CheckIn
	}
	if change.CheckOut != nil {
		input.CheckOut = *change.CheckOut
	}
	if change.NightlyRate != nil {
		input.NightlyRate = *change.NightlyRate
	}
	guests := w.guests
	if change.Guests != nil {
		if *change.Guests < 1 {
			return Quote{}, apperr.NewFieldValidationError("at least one guest is required",
				map[string]string{FieldGuests: string(KindRequired)})
		}
		guests = *change.Guests
	}

	quote, err := w.deps.Calculator.ComputeQuote(input.NightlyRate, input.CheckIn, input.CheckOut)
	if err != nil {
		return Quote{}, err
	}

	w.quoteInput = input
	w.guests = guests
	w.quote = quote
	w.updatedAt = w.deps.Now()
	return quote, nil
}

func (w *Workflow) require(from, to Step) error {
	if w.step != from || !w.step.CanTransitionTo(to) {
		return apperr.NewInvalidStateError(w.step.String(), to.String())
	}
	return nil
}

func (w *Workflow) moveTo(step Step) {
	w.deps.Logger.Debug("workflow step changed",
		zap.String("workflow_id", w.id.String()),
		zap.String("from", w.step.String()),
		zap.String("to", step.String()),
	)
	w.step = step
	w.updatedAt = w.deps.Now()
}
