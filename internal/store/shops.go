package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/safar/marketplace-orders/internal/models"
)

// CreateShop inserts a shop. An empty id is replaced with a generated one.
func CreateShop(ctx context.Context, db sqlx.QueryerContext, id, name string) (*models.Shop, error) {
	if id == "" {
		id = uuid.NewString()
	}

	shop := &models.Shop{}
	query := `
		INSERT INTO shops (id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name, created_at`

	if err := sqlx.GetContext(ctx, db, shop, query, id, name); err != nil {
		return nil, fmt.Errorf("create shop: %w", err)
	}

	return shop, nil
}

func GetShop(ctx context.Context, db sqlx.QueryerContext, id string) (*models.Shop, error) {
	shop := &models.Shop{}
	err := sqlx.GetContext(ctx, db, shop, `SELECT id, name, created_at FROM shops WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return shop, nil
}

func ShopExists(ctx context.Context, db sqlx.QueryerContext, id string) (bool, error) {
	var exists bool
	err := db.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM shops WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check shop exists: %w", err)
	}
	return exists, nil
}
