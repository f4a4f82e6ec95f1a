package reservation_test

import (
	"testing"
	"time"

	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedRecord(status reservation.RecordStatus, owner *uuid.UUID) *reservation.Record {
	return reservation.ReconstructRecord(reservation.RecordParams{
		ID:         uuid.New(),
		BookingID:  "BP-2025-000042",
		UserID:     owner,
		PropertyID: "prop-001",
		Quote:      reservation.NewQuote(5000, 2, 1500, 1000, "KES"),
		CheckIn:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Guests:     2,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	})
}

func TestRecord_Cancel(t *testing.T) {
	r := storedRecord(reservation.RecordStatusConfirmed, nil)
	require.NoError(t, r.Cancel())
	assert.Equal(t, reservation.RecordStatusCancelled, r.Status())

	err := r.Cancel()
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestRecord_IsOwnedBy(t *testing.T) {
	owner := uuid.New()

	assert.True(t, storedRecord(reservation.RecordStatusConfirmed, &owner).IsOwnedBy(owner))
	assert.False(t, storedRecord(reservation.RecordStatusConfirmed, &owner).IsOwnedBy(uuid.New()))
	assert.False(t, storedRecord(reservation.RecordStatusConfirmed, nil).IsOwnedBy(owner))
}

func TestParseRecordStatus(t *testing.T) {
	s, err := reservation.ParseRecordStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, reservation.RecordStatusCancelled, s)

	_, err = reservation.ParseRecordStatus("pending")
	assert.Error(t, err)
}

func TestPaymentSelection_SummaryMasksAccount(t *testing.T) {
	s := reservation.MobileMoneyPayment("0712-345-678").Summary()
	assert.Equal(t, reservation.PaymentMethodMobileMoney, s.Method)
	assert.Equal(t, "******5678", s.AccountHint)

	card := reservation.CardPayment().Summary()
	assert.Empty(t, card.AccountHint)
}
