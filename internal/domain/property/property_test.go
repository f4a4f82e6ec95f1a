package property_test

import (
	"testing"

	"github.com/BnBPlug/service-reservation/internal/domain/property"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_CheckGuests(t *testing.T) {
	p := property.Property{Title: "Westlands Studio", MaxGuests: 2}

	assert.NoError(t, p.CheckGuests(2))

	var vErr *apperr.ValidationError
	require.ErrorAs(t, p.CheckGuests(3), &vErr)
	assert.Equal(t, "exceeds_capacity", vErr.Fields["guests"])

	require.ErrorAs(t, p.CheckGuests(0), &vErr)
	assert.Equal(t, "required", vErr.Fields["guests"])

	assert.NoError(t, property.Property{}.CheckGuests(12))
}

func TestProperty_IsBookable(t *testing.T) {
	assert.True(t, property.Property{}.IsBookable())
	assert.True(t, property.Property{Status: property.StatusActive}.IsBookable())
	assert.False(t, property.Property{Status: property.StatusInactive}.IsBookable())
}
