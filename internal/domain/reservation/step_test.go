package reservation_test

import (
	"testing"

	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/stretchr/testify/assert"
)

func TestStep_Transitions(t *testing.T) {
	tests := []struct {
		from, to reservation.Step
		allowed  bool
	}{
		{reservation.StepCollectingGuestInfo, reservation.StepSelectingPayment, true},
		{reservation.StepSelectingPayment, reservation.StepCollectingGuestInfo, true},
		{reservation.StepSelectingPayment, reservation.StepConfirmed, true},
		{reservation.StepCollectingGuestInfo, reservation.StepConfirmed, false},
		{reservation.StepConfirmed, reservation.StepSelectingPayment, false},
		{reservation.StepConfirmed, reservation.StepCollectingGuestInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStep_Terminal(t *testing.T) {
	assert.True(t, reservation.StepConfirmed.IsTerminal())
	assert.False(t, reservation.StepSelectingPayment.IsTerminal())
	assert.False(t, reservation.Step(9).IsValid())
	assert.Equal(t, "step(9)", reservation.Step(9).String())
}
