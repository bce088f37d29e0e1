package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const (
	cardNumberMin = 10000000
	cardNumberMax = 99999999
)

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// GenerateCardNumber returns an 8-digit number staff can type in by hand.
func GenerateCardNumber() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(cardNumberMax-cardNumberMin+1))
	if err != nil {
		return 0, err
	}
	return n.Int64() + cardNumberMin, nil
}
