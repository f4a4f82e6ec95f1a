package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// BookingIDPrefix starts every booking ID.
const BookingIDPrefix = "BP"

// bookingIDSuffixSpace bounds the random suffix to [0, 1000000).
const bookingIDSuffixSpace = 1_000_000

// IDGenerator issues human-readable booking IDs. IDs are not guaranteed
// unique; the Repository rejects duplicates.
type IDGenerator interface {
	NextID(year int) (string, error)
}

// RandomIDGenerator issues IDs of the form "BP-2024-004217".
type RandomIDGenerator struct{}

// NewRandomIDGenerator creates a RandomIDGenerator.
func NewRandomIDGenerator() RandomIDGenerator { return RandomIDGenerator{} }

// NextID returns a new ID for the given year.
func (RandomIDGenerator) NextID(year int) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(bookingIDSuffixSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate booking id: %w", err)
	}
	return fmt.Sprintf("%s-%04d-%06d", BookingIDPrefix, year, n.Int64()), nil
}
