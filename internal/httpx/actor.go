package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/safar/marketplace-orders/internal/models"
	"github.com/safar/marketplace-orders/internal/orders"
)

// Headers set by the upstream auth gateway after verifying the caller's token.
const (
	HeaderActorRole   = "X-Actor-Role"
	HeaderActorShopID = "X-Actor-Shop-ID"
	HeaderActorUserID = "X-Actor-User-ID"
)

type actorKey struct{}

// ResolveActor reads the actor headers and rejects requests without a known
// role.
func ResolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := orders.NormalizeRole(r.Header.Get(HeaderActorRole))
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing or unknown actor role")
			return
		}

		actor := models.Actor{
			Role:   role,
			ShopID: strings.TrimSpace(r.Header.Get(HeaderActorShopID)),
			UserID: strings.TrimSpace(r.Header.Get(HeaderActorUserID)),
		}
		if role != models.RoleMerchant {
			actor.ShopID = ""
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey{}).(models.Actor)
	return actor
}

func canManageShop(actor models.Actor, shopID string) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleMerchant:
		return actor.ShopID != "" && actor.ShopID == shopID
	}
	return false
}
