package orders

import (
	"errors"
	"fmt"

	"github.com/safar/marketplace-orders/internal/database"
)

// Sentinel codes. Match with errors.Is.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrForbidden          = errors.New("forbidden")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrPersistenceFailure = errors.New("persistence failure")
)

// Error is returned by every failing PlaceOrder call.
type Error struct {
	Code      error
	ProductID string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Code.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.ProductID != "" {
		msg += fmt.Sprintf(" (product %s)", e.ProductID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Code }

func (e *Error) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) *Error {
	return &Error{Code: ErrInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) *Error {
	return &Error{Code: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

func unavailable(productID string) *Error {
	return &Error{Code: ErrProductUnavailable, ProductID: productID, Msg: "not purchasable in this shop"}
}

func insufficient(productID string, requested, available int) *Error {
	return &Error{
		Code:      ErrInsufficientStock,
		ProductID: productID,
		Msg:       fmt.Sprintf("requested %d, available %d", requested, available),
	}
}

// raceLost is reported when the conditional decrement matched no row after
// the read showed enough stock: a concurrent order won the units.
func raceLost(productID string) *Error {
	return &Error{Code: ErrInsufficientStock, ProductID: productID, Msg: "stock taken by a concurrent order"}
}

func persistence(err error) *Error {
	return &Error{Code: ErrPersistenceFailure, Err: err}
}

// Retryable reports whether resubmitting the same request may succeed. A
// persistence failure caused by the data itself fails the same way again.
func Retryable(err error) bool {
	if errors.Is(err, ErrInsufficientStock) {
		return true
	}
	return errors.Is(err, ErrPersistenceFailure) && !database.IsDataError(err)
}

// ProductOf returns the offending product id carried by err, if any.
func ProductOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ProductID
	}
	return ""
}
