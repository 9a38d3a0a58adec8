package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
)

func appendTestMovement(t *testing.T, repo *GormStockMovementRepository, itemID, warehouseID uuid.UUID, movementType stock.MovementType, quantity, before int64) *stock.StockMovement {
	t.Helper()

	delta := quantity
	if movementType.IsOutbound() {
		delta = -quantity
	}
	movement, err := stock.NewStockMovement(itemID, warehouseID, movementType, quantity, delta, before, before+delta, "tester")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), movement))
	return movement
}

func TestGormStockMovementRepository_Create(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	warehouseID := uuid.New()

	movement := appendTestMovement(t, repo, itemID, warehouseID, stock.MovementTypeIn, 10, 0)

	found, err := repo.FindByID(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, stock.MovementTypeIn, found.Type)
	assert.Equal(t, int64(10), found.Quantity)
	assert.Equal(t, int64(0), found.QuantityBefore)
	assert.Equal(t, int64(10), found.QuantityAfter)

	t.Run("unknown id returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormStockMovementRepository_FindByItem(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	warehouseA := uuid.New()
	warehouseB := uuid.New()

	appendTestMovement(t, repo, itemID, warehouseA, stock.MovementTypeIn, 10, 0)
	appendTestMovement(t, repo, itemID, warehouseA, stock.MovementTypeOut, 4, 10)
	appendTestMovement(t, repo, itemID, warehouseB, stock.MovementTypeIn, 7, 0)
	appendTestMovement(t, repo, uuid.New(), warehouseA, stock.MovementTypeIn, 99, 0)

	t.Run("returns all entries for the item", func(t *testing.T) {
		movements, err := repo.FindByItem(ctx, itemID, shared.Filter{})
		require.NoError(t, err)
		assert.Len(t, movements, 3)
	})

	t.Run("respects limit", func(t *testing.T) {
		movements, err := repo.FindByItem(ctx, itemID, shared.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, movements, 2)
	})

	t.Run("scopes to warehouse with FindByKey", func(t *testing.T) {
		movements, err := repo.FindByKey(ctx, itemID, warehouseB, shared.Filter{})
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, int64(7), movements[0].Quantity)
	})

	t.Run("counts entries per item", func(t *testing.T) {
		count, err := repo.CountByItem(ctx, itemID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestGormStockMovementRepository_FindByReference(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	ref := stock.Reference{Kind: stock.ReferenceKindTransfer, ID: uuid.NewString()}

	out, err := stock.NewStockMovement(itemID, uuid.New(), stock.MovementTypeTransfer, 5, -5, 20, 15, "tester")
	require.NoError(t, err)
	in, err := stock.NewStockMovement(itemID, uuid.New(), stock.MovementTypeTransfer, 5, 5, 0, 5, "tester")
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, out.WithReference(ref)))
	require.NoError(t, repo.Create(ctx, in.WithReference(ref)))

	movements, err := repo.FindByReference(ctx, ref)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, ref, movements[0].Reference)
	assert.Equal(t, ref, movements[1].Reference)
}

func TestGormStockMovementRepository_FindByDateRange(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	warehouseID := uuid.New()

	old, err := stock.NewStockMovement(itemID, warehouseID, stock.MovementTypeIn, 5, 5, 0, 5, "tester")
	require.NoError(t, err)
	old = old.WithMovementDate(time.Now().Add(-72 * time.Hour))
	require.NoError(t, repo.Create(ctx, old))

	appendTestMovement(t, repo, itemID, warehouseID, stock.MovementTypeIn, 3, 5)

	movements, err := repo.FindByDateRange(ctx, time.Now().Add(-24*time.Hour), time.Now().Add(time.Hour), shared.Filter{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, int64(3), movements[0].Quantity)
}
