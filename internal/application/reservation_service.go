package application

import (
	"context"
	"fmt"
	"time"

	"github.com/BnBPlug/service-reservation/internal/domain/property"
	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/BnBPlug/service-reservation/internal/platform/auth"
	"github.com/BnBPlug/service-reservation/internal/platform/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventSource = "service-reservation"

// IdentityProvider supplies the authenticated user of a request, if any.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (auth.User, bool)
}

// EventPublisher publishes CloudEvents. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// StartBookingRequest opens a new booking draft.
type StartBookingRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	Guests     int    `json:"guests" binding:"required,min=1"`
}

// RecomputeQuoteRequest changes the dates or guest count of a draft.
type RecomputeQuoteRequest struct {
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	Guests   *int    `json:"guests"`
}

// ReservationDTO is the response representation of a confirmed reservation.
type ReservationDTO struct {
	BookingID     string                     `json:"booking_id"`
	PropertyID    string                     `json:"property_id"`
	PropertyTitle string                     `json:"property_title"`
	UserID        *uuid.UUID                 `json:"user_id,omitempty"`
	Guest         reservation.GuestDetails   `json:"guest"`
	Payment       reservation.PaymentSummary `json:"payment"`
	Quote         reservation.Quote          `json:"quote"`
	CheckIn       string                     `json:"check_in"`
	CheckOut      string                     `json:"check_out"`
	Guests        int                        `json:"guests"`
	Status        string                     `json:"status"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// UserSummaryDTO aggregates a user's reservation history.
type UserSummaryDTO struct {
	BookingCount   int    `json:"booking_count"`
	ConfirmedCount int    `json:"confirmed_count"`
	CancelledCount int    `json:"cancelled_count"`
	TotalSpent     int64  `json:"total_spent"`
	Currency       string `json:"currency"`
}

// ReservationService is the application service orchestrating the booking workflow.
type ReservationService struct {
	drafts    *DraftStore
	catalog   property.Catalog
	identity  IdentityProvider
	deps      reservation.Dependencies
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReservationService creates a new ReservationService. deps supplies the
// calculator, validator, id generator and repository every workflow uses.
func NewReservationService(
	drafts *DraftStore,
	catalog property.Catalog,
	identity IdentityProvider,
	deps reservation.Dependencies,
	publisher EventPublisher,
	logger *zap.Logger,
) *ReservationService {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &ReservationService{
		drafts:    drafts,
		catalog:   catalog,
		identity:  identity,
		deps:      deps,
		publisher: publisher,
		logger:    logger,
	}
}

// StartBooking opens a draft for the property and dates, priced with the
// property's current nightly rate.
func (s *ReservationService) StartBooking(ctx context.Context, req StartBookingRequest) (*reservation.Draft, error) {
	checkIn, err := reservation.ParseDate(req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := reservation.ParseDate(req.CheckOut)
	if err != nil {
		return nil, err
	}

	prop, err := s.bookableProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := prop.CheckGuests(req.Guests); err != nil {
		return nil, err
	}

	var userID *uuid.UUID
	if u, ok := s.identity.CurrentUser(ctx); ok {
		id := u.ID
		userID = &id
	}

	wf, err := reservation.StartWorkflow(s.deps, reservation.StartParams{
		PropertyID:    prop.ID,
		PropertyTitle: prop.Title,
		NightlyRate:   prop.NightlyRate,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        req.Guests,
		UserID:        userID,
	})
	if err != nil {
		return nil, err
	}
	s.drafts.Put(wf)

	s.logger.Debug("booking draft started",
		zap.String("workflow_id", wf.ID().String()),
		zap.String("property_id", prop.ID),
		zap.Int("nights", wf.Quote().Nights),
	)

	draft := wf.Snapshot()
	return &draft, nil
}

// GetDraft returns the current state of a draft.
func (s *ReservationService) GetDraft(ctx context.Context, draftID uuid.UUID) (*reservation.Draft, error) {
	return s.transition(ctx, draftID, func(*reservation.Workflow) error { return nil })
}

// SubmitGuestDetails validates guest details and advances to payment selection.
func (s *ReservationService) SubmitGuestDetails(ctx context.Context, draftID uuid.UUID, guest reservation.GuestDetails) (*reservation.Draft, error) {
	return s.transition(ctx, draftID, func(wf *reservation.Workflow) error {
		return wf.AdvanceFromGuestInfo(guest)
	})
}

// ReturnToGuestInfo steps back from payment selection to guest details.
func (s *ReservationService) ReturnToGuestInfo(ctx context.Context, draftID uuid.UUID) (*reservation.Draft, error) {
	return s.transition(ctx, draftID, func(wf *reservation.Workflow) error {
		return wf.ReturnToGuestInfo()
	})
}

// SelectPaymentMethod stores the current payment choice.
func (s *ReservationService) SelectPaymentMethod(ctx context.Context, draftID uuid.UUID, sel reservation.PaymentSelection) (*reservation.Draft, error) {
	return s.transition(ctx, draftID, func(wf *reservation.Workflow) error {
		return wf.SelectPaymentMethod(sel)
	})
}

// RecomputeQuote re-prices a draft after a date or guest-count edit. The
// nightly rate is refreshed from the catalog.
func (s *ReservationService) RecomputeQuote(ctx context.Context, draftID uuid.UUID, req RecomputeQuoteRequest) (*reservation.Draft, error) {
	var change reservation.QuoteChange
	if req.CheckIn != nil {
		t, err := reservation.ParseDate(*req.CheckIn)
		if err != nil {
			return nil, err
		}
		change.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := reservation.ParseDate(*req.CheckOut)
		if err != nil {
			return nil, err
		}
		change.CheckOut = &t
	}

	return s.transition(ctx, draftID, func(wf *reservation.Workflow) error {
		prop, err := s.bookableProperty(ctx, wf.QuoteInput().PropertyID)
		if err != nil {
			return err
		}
		if req.Guests != nil {
			if err := prop.CheckGuests(*req.Guests); err != nil {
				return err
			}
			change.Guests = req.Guests
		}
		rate := prop.NightlyRate
		change.NightlyRate = &rate

		_, err = wf.RecomputeQuote(change)
		return err
	})
}

// Confirm validates payment and commits the reservation. On success the
// confirmed event is published; a publish failure is only logged because
// the record is already saved.
func (s *ReservationService) Confirm(ctx context.Context, draftID uuid.UUID, sel reservation.PaymentSelection) (*ReservationDTO, error) {
	var record *reservation.Record
	_, err := s.transition(ctx, draftID, func(wf *reservation.Workflow) error {
		rec, err := wf.Confirm(ctx, sel)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		if !apperr.IsValidation(err) && !apperr.IsInvalidState(err) && !apperr.IsNotFound(err) {
			s.logger.Error("failed to confirm reservation",
				zap.String("workflow_id", draftID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("reservation confirmed",
		zap.String("booking_id", record.BookingID()),
		zap.String("property_id", record.PropertyID()),
		zap.Int64("total", record.Quote().Total),
	)
	evt := reservation.NewConfirmedEvent(record, time.Now().UTC())
	s.publishEvent(ctx, reservation.EventReservationConfirmed, record.BookingID(), evt)

	result := toReservationDTO(record)
	return &result, nil
}

// AbandonBooking discards a draft. Nothing has been persisted, so no
// compensation is needed.
func (s *ReservationService) AbandonBooking(ctx context.Context, draftID uuid.UUID) error {
	if err := s.drafts.With(draftID, func(wf *reservation.Workflow) error {
		return s.authorizeDraft(ctx, wf)
	}); err != nil {
		return err
	}
	s.drafts.Delete(draftID)
	s.logger.Debug("booking draft abandoned", zap.String("workflow_id", draftID.String()))
	return nil
}

// ListUserReservations returns the user's reservations, newest first.
func (s *ReservationService) ListUserReservations(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error) {
	records, err := s.deps.Repository.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	dtos := make([]ReservationDTO, len(records))
	for i, r := range records {
		dtos[i] = toReservationDTO(r)
	}
	return dtos, nil
}

// GetUserSummary counts the user's reservations and sums what they spent
// on the ones still confirmed.
func (s *ReservationService) GetUserSummary(ctx context.Context, userID uuid.UUID) (*UserSummaryDTO, error) {
	records, err := s.deps.Repository.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	summary := &UserSummaryDTO{BookingCount: len(records)}
	for _, r := range records {
		switch r.Status() {
		case reservation.RecordStatusConfirmed:
			summary.ConfirmedCount++
			summary.TotalSpent += r.Quote().Total
			summary.Currency = r.Quote().Currency
		case reservation.RecordStatusCancelled:
			summary.CancelledCount++
		}
	}
	return summary, nil
}

// GetReservation returns one of the user's reservations.
func (s *ReservationService) GetReservation(ctx context.Context, userID uuid.UUID, bookingID string) (*ReservationDTO, error) {
	record, err := s.deps.Repository.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !record.IsOwnedBy(userID) {
		return nil, apperr.NewForbiddenError("reservation does not belong to this user")
	}
	result := toReservationDTO(record)
	return &result, nil
}

// CancelReservation cancels one of the user's confirmed reservations.
func (s *ReservationService) CancelReservation(ctx context.Context, userID uuid.UUID, bookingID, reason string) (*ReservationDTO, error) {
	record, err := s.deps.Repository.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !record.IsOwnedBy(userID) {
		return nil, apperr.NewForbiddenError("reservation does not belong to this user")
	}
	return s.cancel(ctx, record, &userID, reason)
}

// CancelAsAdmin cancels any confirmed reservation on behalf of adminID.
func (s *ReservationService) CancelAsAdmin(ctx context.Context, adminID uuid.UUID, bookingID, reason string) (*ReservationDTO, error) {
	record, err := s.deps.Repository.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, record, &adminID, reason)
}

// CancelForRefund cancels a reservation whose payment was refunded.
// Records that are already cancelled are left alone.
func (s *ReservationService) CancelForRefund(ctx context.Context, bookingID, reason string) (*ReservationDTO, error) {
	record, err := s.deps.Repository.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if record.Status() == reservation.RecordStatusCancelled {
		result := toReservationDTO(record)
		return &result, nil
	}
	return s.cancel(ctx, record, nil, reason)
}

func (s *ReservationService) cancel(ctx context.Context, record *reservation.Record, by *uuid.UUID, reason string) (*ReservationDTO, error) {
	if err := record.Cancel(); err != nil {
		return nil, err
	}
	if err := s.deps.Repository.UpdateStatus(ctx, record.BookingID(),
		reservation.RecordStatusConfirmed, reservation.RecordStatusCancelled); err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("booking_id", record.BookingID()),
		zap.String("reason", reason),
	)
	s.publishEvent(ctx, reservation.EventReservationCancelled, record.BookingID(), reservation.CancelledEvent{
		BookingID:   record.BookingID(),
		CancelledBy: by,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})

	result := toReservationDTO(record)
	return &result, nil
}

// transition runs fn on the draft under its lock and returns the
// resulting snapshot. On failure only the error is returned; the draft
// keeps whatever state fn left it in and GetDraft reads it back.
func (s *ReservationService) transition(ctx context.Context, draftID uuid.UUID, fn func(wf *reservation.Workflow) error) (*reservation.Draft, error) {
	var draft reservation.Draft
	err := s.drafts.With(draftID, func(wf *reservation.Workflow) error {
		if err := s.authorizeDraft(ctx, wf); err != nil {
			return err
		}
		err := fn(wf)
		draft = wf.Snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// authorizeDraft lets only the user who started a draft touch it. Drafts
// started anonymously are reachable by anyone holding their ID.
func (s *ReservationService) authorizeDraft(ctx context.Context, wf *reservation.Workflow) error {
	owner := wf.UserID()
	if owner == nil {
		return nil
	}
	u, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return apperr.NewUnauthorizedError("sign in to continue this booking")
	}
	if u.ID != *owner {
		return apperr.NewForbiddenError("booking draft does not belong to this user")
	}
	return nil
}

func (s *ReservationService) bookableProperty(ctx context.Context, propertyID string) (*property.Property, error) {
	prop, err := s.catalog.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.IsBookable() {
		return nil, apperr.NewValidationError(fmt.Sprintf("property %s is not available for booking", propertyID))
	}
	return prop, nil
}

// publishEvent keys events by booking ID so that the events of one
// reservation stay ordered on their partition.
func (s *ReservationService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEventWithKey(ctx, reservation.TopicReservationEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", reservation.TopicReservationEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toReservationDTO(r *reservation.Record) ReservationDTO {
	return ReservationDTO{
		BookingID:     r.BookingID(),
		PropertyID:    r.PropertyID(),
		PropertyTitle: r.PropertyTitle(),
		UserID:        r.UserID(),
		Guest:         r.Guest(),
		Payment:       r.Payment(),
		Quote:         r.Quote(),
		CheckIn:       r.CheckIn().Format(reservation.DateLayout),
		CheckOut:      r.CheckOut().Format(reservation.DateLayout),
		Guests:        r.Guests(),
		Status:        string(r.Status()),
		CreatedAt:     r.CreatedAt(),
	}
}
