package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/database"
	"github.com/safar/marketplace-orders/internal/models"
)

// Tx is the set of store operations available inside one placement
// transaction. Every call must run in the same atomic unit.
type Tx interface {
	ShopExists(ctx context.Context, shopID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	GetActiveProductsInShop(ctx context.Context, shopID string, productIDs []string) ([]models.Product, error)
	// DecrementStockIfAvailable reduces stock by quantity only when at least
	// quantity is left and returns the number of rows changed.
	DecrementStockIfAvailable(ctx context.Context, productID string, quantity int) (int64, error)
	InsertOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem) (*models.Order, error)
}

// TxRunner commits fn's effects when it returns nil and rolls all of them
// back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier receives orders after they are committed.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
}

type Service struct {
	store    TxRunner
	notifier Notifier
	log      zerolog.Logger
	newID    func() string
}

// NewService returns the placement engine. notifier may be nil.
func NewService(store TxRunner, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger.With().Str("component", "orders").Logger(),
		newID:    uuid.NewString,
	}
}

// PlaceOrder validates req, checks the actor, reserves stock and records the
// order in one transaction. It either returns the committed order or an
// *Error with nothing persisted.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	vr, err := validate(req)
	if err != nil {
		return nil, err
	}

	if err := Authorize(req.Actor, vr.shopID); err != nil {
		s.log.Debug().Err(err).Str("shop_id", vr.shopID).Str("role", string(req.Actor.Role)).Msg("order rejected")
		return nil, err
	}

	var placed *models.Order
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := s.reserveAndWrite(ctx, tx, vr)
		if err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return nil, s.fail(vr, err)
	}

	s.log.Info().
		Str("order_id", placed.ID).
		Str("shop_id", placed.ShopID).
		Str("user_id", placed.UserID).
		Int("lines", len(placed.Items)).
		Str("total", placed.Total.String()).
		Msg("order placed")

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, placed)
	}

	return placed, nil
}

func (s *Service) reserveAndWrite(ctx context.Context, tx Tx, vr *validatedRequest) (*models.Order, error) {
	ok, err := tx.ShopExists(ctx, vr.shopID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidf("shop %q does not exist", vr.shopID)
	}

	ok, err = tx.UserExists(ctx, vr.userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidf("user %q does not exist", vr.userID)
	}

	products, err := tx.GetActiveProductsInShop(ctx, vr.shopID, vr.productIDs())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		if p.ShopID == vr.shopID && p.IsActive {
			byID[p.ID] = p
		}
	}

	for _, it := range vr.items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, unavailable(it.ProductID)
		}
		if p.Stock < it.Quantity {
			return nil, insufficient(it.ProductID, it.Quantity, p.Stock)
		}
	}

	orderID := s.newID()
	lines := make([]models.OrderLineItem, 0, len(vr.items))
	for _, it := range vr.items {
		n, err := tx.DecrementStockIfAvailable(ctx, it.ProductID, it.Quantity)
		if err != nil {
			if database.IsCheckViolation(err) {
				return nil, raceLost(it.ProductID)
			}
			return nil, err
		}
		if n != 1 {
			return nil, s.decrementMissed(ctx, tx, vr.shopID, it.ProductID)
		}

		lines = append(lines, models.OrderLineItem{
			OrderID:             orderID,
			ProductID:           it.ProductID,
			Quantity:            it.Quantity,
			UnitPriceAtPurchase: byID[it.ProductID].Price,
		})
	}

	total := ReconcileTotal(ComputeTotal(lines), vr.total)
	if !totalInRange(total) {
		return nil, invalidf("order total %s exceeds %s", total.String(), maxTotal.String())
	}

	order := &models.Order{
		ID:            orderID,
		ShopID:        vr.shopID,
		UserID:        vr.userID,
		Total:         total,
		Status:        vr.status,
		PaymentMethod: vr.paymentMethod,
	}

	return tx.InsertOrderWithItems(ctx, order, lines)
}

// decrementMissed explains a conditional decrement that matched no row. The
// product was either withdrawn since the catalog read or sold out by a
// concurrent order.
func (s *Service) decrementMissed(ctx context.Context, tx Tx, shopID, productID string) error {
	still, err := tx.GetActiveProductsInShop(ctx, shopID, []string{productID})
	if err != nil {
		return err
	}
	if len(still) == 0 {
		return unavailable(productID)
	}
	return raceLost(productID)
}

// fail turns any error out of the transaction into an *Error. Domain errors
// pass through; everything else is a persistence failure.
func (s *Service) fail(vr *validatedRequest, err error) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		s.log.Debug().Err(err).Str("shop_id", vr.shopID).Str("user_id", vr.userID).Msg("order rejected")
		return err
	}

	s.log.Error().
		Err(err).
		Str("shop_id", vr.shopID).
		Str("user_id", vr.userID).
		Stringer("class", database.ClassifyError(err)).
		Bool("retryable", database.IsRetryable(err)).
		Msg("order placement failed")

	return persistence(err)
}
