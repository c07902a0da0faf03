package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, shop_id, name, price, stock, is_active, created_at, updated_at, version`

type NewProduct struct {
	ID     string
	ShopID string
	Name   string
	Price  decimal.Decimal
	Stock  int
}

func CreateProduct(ctx context.Context, db sqlx.QueryerContext, p NewProduct) (*models.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	product := &models.Product{}
	query := `
		INSERT INTO products (id, shop_id, name, price, stock, is_active, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW(), 1)
		RETURNING ` + productColumns

	if err := sqlx.GetContext(ctx, db, product, query, p.ID, p.ShopID, p.Name, p.Price, p.Stock); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, db sqlx.QueryerContext, id string) (*models.Product, error) {
	product := &models.Product{}
	err := sqlx.GetContext(ctx, db, product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// GetActiveProductsInShop returns the active products among productIDs that
// belong to shopID. Ids from other shops or unknown ids are simply absent.
func GetActiveProductsInShop(ctx context.Context, db sqlx.QueryerContext, shopID string, productIDs []string) ([]models.Product, error) {
	products := []models.Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE shop_id = $1
		  AND id = ANY($2)
		  AND is_active
		ORDER BY id`

	if err := sqlx.SelectContext(ctx, db, &products, query, shopID, pq.Array(productIDs)); err != nil {
		return nil, fmt.Errorf("get active products in shop %s: %w", shopID, err)
	}

	return products, nil
}

// DecrementStockIfAvailable takes quantity units in one conditional update and
// returns the rows affected: 1 when applied, 0 when stock was short, the
// product inactive, or missing. It never reads stock first.
func DecrementStockIfAvailable(ctx context.Context, db sqlx.ExecerContext, productID string, quantity int) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET stock = stock - $1,
		     version = version + 1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND is_active
		   AND stock >= $1`,
		quantity, productID)
	if err != nil {
		return 0, fmt.Errorf("decrement stock for product %s: %w", productID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// SetStockOptimistic overwrites stock when the caller's version is current.
// Order decrements bump the version, so a stale write never erases a sale.
func SetStockOptimistic(ctx context.Context, db sqlx.QueryerContext, productID string, newStock int, version int) (*models.Product, error) {
	product := &models.Product{}
	query := `
		UPDATE products
		SET stock = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
		RETURNING ` + productColumns

	err := sqlx.GetContext(ctx, db, product, query, newStock, productID, version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptimisticLockFailed
		}
		return nil, fmt.Errorf("set stock: %w", err)
	}

	return product, nil
}

func SetProductActive(ctx context.Context, db sqlx.ExecerContext, productID string, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET is_active = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2`,
		active, productID)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func ListProductsByShop(ctx context.Context, db sqlx.QueryerContext, shopID string, page, pageSize int) (*OffsetPage, error) {
	var total int64
	if err := sqlx.GetContext(ctx, db, &total, `SELECT COUNT(*) FROM products WHERE shop_id = $1`, shopID); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	products := []models.Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE shop_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	if err := sqlx.SelectContext(ctx, db, &products, query, shopID, pageSize, offsetFor(page, pageSize)); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}
