package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Shop struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Version   int       `json:"version" db:"version"`
}

type Product struct {
	ID        string          `json:"id" db:"id"`
	ShopID    string          `json:"shop_id" db:"shop_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	Version   int             `json:"version" db:"version"`
}

type Order struct {
	ID            string          `json:"id" db:"id"`
	ShopID        string          `json:"shop_id" db:"shop_id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        OrderStatus     `json:"status" db:"status"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	Items         []OrderLineItem `json:"items,omitempty" db:"-"`
}

// OrderLineItem prices are snapshotted at placement and never re-read.
type OrderLineItem struct {
	OrderID             string          `json:"order_id" db:"order_id"`
	ProductID           string          `json:"product_id" db:"product_id"`
	Quantity            int             `json:"quantity" db:"quantity"`
	UnitPriceAtPurchase decimal.Decimal `json:"unit_price_at_purchase" db:"unit_price_at_purchase"`
}

func (i OrderLineItem) Subtotal() decimal.Decimal {
	return i.UnitPriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleMerchant Role = "MERCHANT"
	RoleAdmin    Role = "ADMIN"
)

// Actor is the authenticated requester. ShopID is set for merchants only;
// UserID is optional and only consulted for read access.
type Actor struct {
	Role   Role
	ShopID string
	UserID string
}
