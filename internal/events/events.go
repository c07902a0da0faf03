package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/safar/marketplace-orders/internal/models"
)

const (
	EventOrderPlaced = "OrderPlaced"
	eventVersion     = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type LineItem struct {
	ProductID           string `json:"product_id"`
	Quantity            int    `json:"quantity"`
	UnitPriceAtPurchase string `json:"unit_price_at_purchase"`
}

type OrderPlacedPayload struct {
	OrderID       string     `json:"order_id"`
	ShopID        string     `json:"shop_id"`
	UserID        string     `json:"user_id"`
	Total         string     `json:"total"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []LineItem `json:"items"`
}

// NewOrderPlaced wraps order in a versioned envelope keyed by the order id.
func NewOrderPlaced(producer string, order *models.Order, now time.Time) (Envelope, error) {
	payload := OrderPlacedPayload{
		OrderID:       order.ID,
		ShopID:        order.ShopID,
		UserID:        order.UserID,
		Total:         order.Total.StringFixed(2),
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
		Items:         make([]LineItem, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		payload.Items = append(payload.Items, LineItem{
			ProductID:           it.ProductID,
			Quantity:            it.Quantity,
			UnitPriceAtPurchase: it.UnitPriceAtPurchase.StringFixed(2),
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  eventVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: order.ID,
		Payload:       raw,
	}, nil
}
