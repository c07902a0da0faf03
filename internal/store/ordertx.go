package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/safar/marketplace-orders/internal/database"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/safar/marketplace-orders/internal/orders"
)

// OrderTxRunner runs order placement in one Postgres transaction.
type OrderTxRunner struct {
	DB   *sqlx.DB
	Opts database.TxOptions
}

func NewOrderTxRunner(db *sqlx.DB) *OrderTxRunner {
	return &OrderTxRunner{DB: db, Opts: database.DefaultTxOptions()}
}

func (r *OrderTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	return database.WithTransaction(ctx, r.DB, r.Opts, func(tx *sqlx.Tx) error {
		return fn(ctx, placementTx{tx: tx})
	})
}

type placementTx struct {
	tx *sqlx.Tx
}

func (p placementTx) ShopExists(ctx context.Context, shopID string) (bool, error) {
	return ShopExists(ctx, p.tx, shopID)
}

func (p placementTx) UserExists(ctx context.Context, userID string) (bool, error) {
	return UserExists(ctx, p.tx, userID)
}

func (p placementTx) GetActiveProductsInShop(ctx context.Context, shopID string, productIDs []string) ([]models.Product, error) {
	return GetActiveProductsInShop(ctx, p.tx, shopID, productIDs)
}

func (p placementTx) DecrementStockIfAvailable(ctx context.Context, productID string, quantity int) (int64, error) {
	return DecrementStockIfAvailable(ctx, p.tx, productID, quantity)
}

func (p placementTx) InsertOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem) (*models.Order, error) {
	return InsertOrderWithItems(ctx, p.tx, order, items)
}
