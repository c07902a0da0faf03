package orders

import (
	"math"
	"sort"
	"strings"

	"github.com/safar/marketplace-orders/internal/models"
	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest is one cart for a single shop. Total, PaymentMethod and
// Status are optional.
type PlaceOrderRequest struct {
	ShopID        string
	UserID        string
	Items         []LineItemRequest
	Total         *decimal.Decimal
	PaymentMethod string
	Status        string
	Actor         models.Actor
}

// maxQuantity is the largest quantity the order_items column can hold.
const maxQuantity = math.MaxInt32

// maxTotal is the largest amount orders.total NUMERIC(14,2) can hold.
var maxTotal = decimal.RequireFromString("999999999999.99")

func totalInRange(d decimal.Decimal) bool {
	return !d.Round(2).GreaterThan(maxTotal)
}

type validatedRequest struct {
	shopID        string
	userID        string
	items         []LineItemRequest
	total         *decimal.Decimal
	paymentMethod string
	status        models.OrderStatus
}

func (v *validatedRequest) productIDs() []string {
	ids := make([]string, len(v.items))
	for i, it := range v.items {
		ids[i] = it.ProductID
	}
	return ids
}

// validate trims ids, merges repeated products by summing quantities, and
// returns the items sorted by product id.
func validate(req PlaceOrderRequest) (*validatedRequest, error) {
	shopID := strings.TrimSpace(req.ShopID)
	if shopID == "" {
		return nil, invalidf("shop id is required")
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, invalidf("user id is required")
	}
	if len(req.Items) == 0 {
		return nil, invalidf("order has no items")
	}
	if req.Total != nil && !totalInRange(*req.Total) {
		return nil, invalidf("total %s exceeds %s", req.Total.String(), maxTotal.String())
	}

	merged := make(map[string]int, len(req.Items))
	for i, it := range req.Items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, invalidf("item %d: product id is required", i)
		}
		if it.Quantity <= 0 {
			return nil, invalidf("item %d: quantity must be a positive integer, got %d", i, it.Quantity)
		}
		if it.Quantity > maxQuantity-merged[id] {
			return nil, invalidf("item %d: quantity for product %s is too large", i, id)
		}
		merged[id] += it.Quantity
	}

	items := make([]LineItemRequest, 0, len(merged))
	for id, qty := range merged {
		items = append(items, LineItemRequest{ProductID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	return &validatedRequest{
		shopID:        shopID,
		userID:        userID,
		items:         items,
		total:         req.Total,
		paymentMethod: strings.TrimSpace(req.PaymentMethod),
		status:        NormalizeStatus(req.Status),
	}, nil
}
