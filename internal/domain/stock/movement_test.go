package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement(t *testing.T) {
	itemID := uuid.New()
	warehouseID := uuid.New()

	t.Run("records consistent snapshot", func(t *testing.T) {
		m, err := NewStockMovement(itemID, warehouseID, MovementTypeIn, 50, 50, 100, 150, "receiver")

		require.NoError(t, err)
		assert.Equal(t, int64(100), m.QuantityBefore)
		assert.Equal(t, int64(150), m.QuantityAfter)
		assert.Equal(t, int64(50), m.Delta)
		assert.False(t, m.MovementDate.IsZero())
	})

	t.Run("rejects snapshot that does not add up", func(t *testing.T) {
		_, err := NewStockMovement(itemID, warehouseID, MovementTypeIn, 50, 50, 100, 140, "receiver")

		require.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewStockMovement(itemID, warehouseID, MovementTypeOut, 0, 0, 100, 100, "shipper")

		require.Error(t, err)
	})

	t.Run("rejects missing actor", func(t *testing.T) {
		_, err := NewStockMovement(itemID, warehouseID, MovementTypeIn, 10, 10, 0, 10, "")

		require.Error(t, err)
	})

	t.Run("negative delta for outbound types", func(t *testing.T) {
		m, err := NewStockMovement(itemID, warehouseID, MovementTypeLost, 5, -5, 20, 15, "counter")

		require.NoError(t, err)
		assert.Equal(t, int64(-5), m.Delta)
	})
}

func TestStockMovement_TotalCost(t *testing.T) {
	m, err := NewStockMovement(uuid.New(), uuid.New(), MovementTypeIn, 10, 10, 0, 10, "receiver")
	require.NoError(t, err)
	m = m.WithUnitCost(decimal.NewFromFloat(2.50))

	assert.Equal(t, "25", m.TotalCost().String())
}

func TestReference_IsZero(t *testing.T) {
	assert.True(t, Reference{}.IsZero())
	assert.False(t, Reference{Kind: ReferenceKindShipment, ID: "SHP-1"}.IsZero())
}
