package orders

import (
	"strings"

	"github.com/safar/marketplace-orders/internal/models"
)

var statusAliases = map[string]models.OrderStatus{
	"PENDING":     models.OrderStatusPending,
	"NEW":         models.OrderStatusPending,
	"CREATED":     models.OrderStatusPending,
	"PLACED":      models.OrderStatusPending,
	"CONFIRMED":   models.OrderStatusConfirmed,
	"CONFIRM":     models.OrderStatusConfirmed,
	"ACCEPTED":    models.OrderStatusConfirmed,
	"PREPARING":   models.OrderStatusPreparing,
	"PROCESSING":  models.OrderStatusPreparing,
	"IN_PROGRESS": models.OrderStatusPreparing,
	"READY":       models.OrderStatusReady,
	"DELIVERED":   models.OrderStatusDelivered,
	"COMPLETED":   models.OrderStatusDelivered,
	"DONE":        models.OrderStatusDelivered,
	"CANCELLED":   models.OrderStatusCancelled,
	"CANCELED":    models.OrderStatusCancelled,
	"REFUNDED":    models.OrderStatusRefunded,
}

// NormalizeStatus maps a loose status hint onto the canonical enum. Casing,
// surrounding space, and '-' or ' ' separators are ignored. Unknown or empty
// hints become PENDING.
func NormalizeStatus(hint string) models.OrderStatus {
	key := strings.ToUpper(strings.TrimSpace(hint))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return models.OrderStatusPending
}

var forwardStatus = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusPending:   models.OrderStatusConfirmed,
	models.OrderStatusConfirmed: models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusReady,
	models.OrderStatusReady:     models.OrderStatusDelivered,
}

func IsTerminal(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusDelivered, models.OrderStatusCancelled, models.OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransition reports whether a status change follows
// PENDING → CONFIRMED → PREPARING → READY → DELIVERED, with CANCELLED and
// REFUNDED reachable from any non-terminal status.
func CanTransition(from, to models.OrderStatus) bool {
	if IsTerminal(from) {
		return false
	}
	if _, known := forwardStatus[from]; !known {
		return false
	}
	if to == models.OrderStatusCancelled || to == models.OrderStatusRefunded {
		return true
	}
	return forwardStatus[from] == to
}
