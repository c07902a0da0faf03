package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/idempotency"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/safar/marketplace-orders/internal/orders"
	"github.com/safar/marketplace-orders/internal/store"
	"github.com/shopspring/decimal"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) (*models.Order, error)
}

type OrdersHandler struct {
	Orders           OrderPlacer
	DB               *sqlx.DB
	Idempotency      *idempotency.Store
	PlacementTimeout time.Duration
	Log              zerolog.Logger
}

type placeOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderBody struct {
	UserID        string           `json:"user_id"`
	Items         []placeOrderItem `json:"items"`
	Total         json.RawMessage  `json:"total,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Status        string           `json:"status,omitempty"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(ResolveActor)
		r.Post("/shops/{shopID}/orders", h.placeOrder)
		r.Get("/shops/{shopID}/orders", h.listShopOrders)
		r.Get("/users/{userID}/orders", h.listUserOrders)
		r.Get("/orders/{orderID}", h.getOrder)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	shopID := chi.URLParam(r, "shopID")

	var body placeOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := strings.TrimSpace(body.UserID)
	if userID == "" && actor.Role == models.RoleCustomer {
		userID = actor.UserID
	}

	req := orders.PlaceOrderRequest{
		ShopID:        shopID,
		UserID:        userID,
		Items:         make([]orders.LineItemRequest, 0, len(body.Items)),
		Total:         parseLooseTotal(body.Total),
		PaymentMethod: body.PaymentMethod,
		Status:        body.Status,
		Actor:         actor,
	}
	for _, it := range body.Items {
		req.Items = append(req.Items, orders.LineItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx := r.Context()
	if h.PlacementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.PlacementTimeout)
		defer cancel()
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if h.Idempotency == nil || key == "" {
		h.place(ctx, w, req)
		return
	}

	scope := shopID + ":" + userID
	state, orderID, err := h.Idempotency.Begin(ctx, scope, key)
	if err != nil {
		h.Log.Warn().Err(err).Msg("idempotency unavailable, placing without it")
		h.place(ctx, w, req)
		return
	}

	switch state {
	case idempotency.StateInFlight:
		respondError(w, http.StatusConflict, "a request with this idempotency key is still in progress")
		return
	case idempotency.StateCompleted:
		order, err := store.GetOrder(ctx, h.DB, orderID)
		if err != nil {
			h.Log.Error().Err(err).Str("order_id", orderID).Msg("replay idempotent order")
			respondError(w, http.StatusInternalServerError, "could not load the original order")
			return
		}
		respondJSON(w, http.StatusOK, order)
		return
	}

	order, ok := h.place(ctx, w, req)
	// The claim is settled on a fresh context so a timed-out request still
	// releases or records its key.
	settleCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if ok {
		err = h.Idempotency.Complete(settleCtx, scope, key, order.ID)
	} else {
		err = h.Idempotency.Abandon(settleCtx, scope, key)
	}
	if err != nil {
		h.Log.Warn().Err(err).Str("key", key).Msg("settle idempotency key")
	}
}

func (h *OrdersHandler) place(ctx context.Context, w http.ResponseWriter, req orders.PlaceOrderRequest) (*models.Order, bool) {
	order, err := h.Orders.PlaceOrder(ctx, req)
	if err != nil {
		respondOrderError(w, h.Log, err)
		return nil, false
	}
	respondJSON(w, http.StatusCreated, order)
	return order, true
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, err := store.GetOrder(ctx, h.DB, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error().Err(err).Msg("get order")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Unauthorized readers get the same answer as for a missing order.
	if !orders.CanView(actorFrom(ctx), order) {
		respondError(w, http.StatusNotFound, store.ErrOrderNotFound.Error())
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) listShopOrders(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")
	if !canManageShop(actorFrom(r.Context()), shopID) {
		respondError(w, http.StatusForbidden, "not allowed to list orders of this shop")
		return
	}
	h.listOrders(w, r, store.OrderFilter{ShopID: shopID})
}

func (h *OrdersHandler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	userID := chi.URLParam(r, "userID")
	if actor.Role != models.RoleAdmin && actor.UserID != userID {
		respondError(w, http.StatusForbidden, "not allowed to list orders of this user")
		return
	}
	h.listOrders(w, r, store.OrderFilter{UserID: userID})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request, filter store.OrderFilter) {
	limit := queryInt(r, "limit", 20, 100)

	page, err := store.ListOrdersCursor(r.Context(), h.DB, filter, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error().Err(err).Msg("list orders")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// parseLooseTotal accepts a JSON number or numeric string. Anything else,
// including negatives, reads as no client total.
func parseLooseTotal(raw json.RawMessage) *decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
