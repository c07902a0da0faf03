package orders

import (
	"strings"

	"github.com/safar/marketplace-orders/internal/models"
)

// NormalizeRole maps a role string onto models.Role, ignoring case and
// surrounding space. The second result is false for unknown roles.
func NormalizeRole(s string) (models.Role, bool) {
	switch r := models.Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case models.RoleCustomer, models.RoleMerchant, models.RoleAdmin:
		return r, true
	}
	return "", false
}

// Authorize decides whether actor may place an order for shopID. Admins and
// customers may order from any shop; merchants only from their own.
func Authorize(actor models.Actor, shopID string) error {
	role, ok := NormalizeRole(string(actor.Role))
	if !ok {
		return forbiddenf("unknown role %q", actor.Role)
	}

	switch role {
	case models.RoleAdmin, models.RoleCustomer:
		return nil
	case models.RoleMerchant:
		if actor.ShopID != "" && strings.TrimSpace(actor.ShopID) == shopID {
			return nil
		}
		return forbiddenf("merchant of shop %q cannot order for shop %q", actor.ShopID, shopID)
	}
	return forbiddenf("role %q", role)
}

// CanView reports whether actor may read order.
func CanView(actor models.Actor, order *models.Order) bool {
	role, ok := NormalizeRole(string(actor.Role))
	if !ok || order == nil {
		return false
	}

	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleMerchant:
		return actor.ShopID != "" && actor.ShopID == order.ShopID
	case models.RoleCustomer:
		return actor.UserID != "" && actor.UserID == order.UserID
	}
	return false
}
