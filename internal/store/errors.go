package store

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrShopNotFound         = errors.New("shop not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOptimisticLockFailed = errors.New("optimistic lock failed")
	ErrInvalidCursor        = errors.New("invalid cursor")
)
