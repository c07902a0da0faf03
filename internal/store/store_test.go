package store_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/safar/marketplace-orders/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type seed struct {
	db   *sqlx.DB
	shop *models.Shop
	user *models.User
}

func seedShopAndUser(t *testing.T, db *sqlx.DB, shopID, userID string) seed {
	t.Helper()
	ctx := context.Background()

	shop, err := store.CreateShop(ctx, db, shopID, "Shop "+shopID)
	require.NoError(t, err)

	user, err := store.CreateUser(ctx, db, userID, userID+"@example.com", "User "+userID)
	require.NoError(t, err)

	return seed{db: db, shop: shop, user: user}
}

func seedProduct(t *testing.T, db *sqlx.DB, id, shopID string, price int64, stock int) *models.Product {
	t.Helper()

	p, err := store.CreateProduct(context.Background(), db, store.NewProduct{
		ID:     id,
		ShopID: shopID,
		Name:   "Product " + id,
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
	})
	require.NoError(t, err)
	return p
}

func stockOf(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()

	p, err := store.GetProduct(context.Background(), db, id)
	require.NoError(t, err)
	return p.Stock
}

func countOrders(t *testing.T, db *sqlx.DB) (orders, items int) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, sqlx.GetContext(ctx, db, &orders, `SELECT COUNT(*) FROM orders`))
	require.NoError(t, sqlx.GetContext(ctx, db, &items, `SELECT COUNT(*) FROM order_items`))
	return orders, items
}
