package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/safar/marketplace-orders/internal/store"
	"github.com/safar/marketplace-orders/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActiveProductsInShop(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	seedShopAndUser(t, db, "S2", "U2")
	seedProduct(t, db, "P1", "S1", 100, 5)
	seedProduct(t, db, "P2", "S2", 100, 5)
	seedProduct(t, db, "P3", "S1", 100, 5)
	require.NoError(t, store.SetProductActive(ctx, db, "P3", false))

	products, err := store.GetActiveProductsInShop(ctx, db, "S1", []string{"P1", "P2", "P3", "missing"})
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "P1", products[0].ID)
	assert.Equal(t, "S1", products[0].ShopID)
	assert.True(t, products[0].IsActive)
}

func TestDecrementStockIfAvailable(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	p := seedProduct(t, db, "P1", "S1", 100, 5)

	n, err := store.DecrementStockIfAvailable(ctx, db, "P1", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 2, stockOf(t, db, "P1"))

	n, err = store.DecrementStockIfAvailable(ctx, db, "P1", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
	assert.Equal(t, 2, stockOf(t, db, "P1"))

	n, err = store.DecrementStockIfAvailable(ctx, db, "missing", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	after, err := store.GetProduct(ctx, db, "P1")
	require.NoError(t, err)
	assert.Equal(t, p.Version+1, after.Version)
}

func TestConcurrentDecrementNeverOversells(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	seedProduct(t, db, "P1", "S1", 100, 10)

	concurrency := 15
	var wg sync.WaitGroup
	var applied atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			n, err := store.DecrementStockIfAvailable(ctx, db, "P1", 1)
			if err != nil {
				t.Errorf("decrement: %v", err)
				return
			}
			applied.Add(n)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, applied.Load())
	assert.Equal(t, 0, stockOf(t, db, "P1"))
}

func TestSetStockOptimistic(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	product := seedProduct(t, db, "P1", "S1", 100, 50)

	updated, err := store.SetStockOptimistic(ctx, db, product.ID, 40, product.Version)
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Stock)

	_, err = store.SetStockOptimistic(ctx, db, product.ID, 30, product.Version)
	assert.ErrorIs(t, err, store.ErrOptimisticLockFailed)
}

func TestSetStockOptimisticLosesToOrderDecrement(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	product := seedProduct(t, db, "P1", "S1", 100, 10)

	_, err := store.DecrementStockIfAvailable(ctx, db, product.ID, 4)
	require.NoError(t, err)

	_, err = store.SetStockOptimistic(ctx, db, product.ID, 10, product.Version)
	assert.ErrorIs(t, err, store.ErrOptimisticLockFailed)
	assert.Equal(t, 6, stockOf(t, db, product.ID))
}

func TestListProductsByShop(t *testing.T) {
	db := testdb.Postgres(t)
	ctx := context.Background()

	seedShopAndUser(t, db, "S1", "U1")
	seedShopAndUser(t, db, "S2", "U2")
	for _, id := range []string{"A", "B", "C"} {
		seedProduct(t, db, id, "S1", 10, 1)
	}
	seedProduct(t, db, "Z", "S2", 10, 1)

	page, err := store.ListProductsByShop(ctx, db, "S1", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	_, err = store.GetProduct(ctx, db, "nope")
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}
