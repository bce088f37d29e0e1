package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCardNumberRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := GenerateCardNumber()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(cardNumberMin))
		assert.LessOrEqual(t, n, int64(cardNumberMax))
	}
}

func TestNewIDIsUUID(t *testing.T) {
	_, err := uuid.Parse(NewID())
	assert.NoError(t, err)
}
