package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductReserve(t *testing.T) {
	p, err := NewProduct("p-1", "f-1", "Tomatoes", 10, 5)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(3))
	assert.Equal(t, 2.0, p.AvailableQuantity)

	assert.ErrorIs(t, p.Reserve(3), ErrInsufficientInventory)
	assert.Equal(t, 2.0, p.AvailableQuantity)

	require.NoError(t, p.Reserve(2))
	assert.Equal(t, 0.0, p.AvailableQuantity)
}

func TestProductReleaseRestores(t *testing.T) {
	p, err := NewProduct("p-1", "f-1", "Tomatoes", 10, 5)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(3))
	require.NoError(t, p.Release(3))
	assert.Equal(t, 5.0, p.AvailableQuantity)
}

func TestProductRejectsNonPositiveQuantity(t *testing.T) {
	p, err := NewProduct("p-1", "f-1", "Tomatoes", 10, 5)
	require.NoError(t, err)

	assert.ErrorIs(t, p.Reserve(0), ErrInvalidQuantity)
	assert.ErrorIs(t, p.Release(-1), ErrInvalidQuantity)

	_, err = NewProduct("p-2", "f-1", "Onions", 1, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
