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

const orderColumns = `id, shop_id, user_id, total, status, payment_method, created_at`

// InsertOrderWithItems writes the order header and its line items. It must
// run inside the transaction that reserved the stock.
func InsertOrderWithItems(ctx context.Context, db sqlx.ExtContext, order *models.Order, items []models.OrderLineItem) (*models.Order, error) {
	created := &models.Order{}
	query := `
		INSERT INTO orders (id, shop_id, user_id, total, status, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + orderColumns

	err := sqlx.GetContext(ctx, db, created, query,
		order.ID, order.ShopID, order.UserID, order.Total, order.Status, order.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created.Items = make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		_, err := db.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price_at_purchase)
			 VALUES ($1, $2, $3, $4)`,
			created.ID, item.ProductID, item.Quantity, item.UnitPriceAtPurchase)
		if err != nil {
			return nil, fmt.Errorf("create order item %s: %w", item.ProductID, err)
		}

		item.OrderID = created.ID
		created.Items = append(created.Items, item)
	}

	return created, nil
}

func GetOrder(ctx context.Context, db sqlx.QueryerContext, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	order := &models.Order{}
	err := sqlx.GetContext(ctx, db, order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items := []models.OrderLineItem{}
	itemsQuery := `
		SELECT order_id, product_id, quantity, unit_price_at_purchase
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id`

	if err := sqlx.SelectContext(ctx, db, &items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	order.Items = items

	return order, nil
}

// OrderFilter scopes an order listing to one shop or one user.
type OrderFilter struct {
	ShopID string
	UserID string
}

func (f OrderFilter) clause() (string, string, error) {
	switch {
	case f.ShopID != "" && f.UserID == "":
		return "shop_id", f.ShopID, nil
	case f.UserID != "" && f.ShopID == "":
		return "user_id", f.UserID, nil
	}
	return "", "", fmt.Errorf("order filter needs exactly one of shop or user")
}

// ListOrdersCursor pages orders newest first. Items are not loaded.
func ListOrdersCursor(ctx context.Context, db sqlx.QueryerContext, filter OrderFilter, cursor string, limit int) (*CursorPage, error) {
	column, value, err := filter.clause()
	if err != nil {
		return nil, err
	}

	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ` + column + ` = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	orders := []models.Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, query, value, cursorData.CreatedAt, cursorData.ID, limit+1); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
