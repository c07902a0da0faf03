package orders

import (
	"errors"
	"math"
	"testing"

	"github.com/safar/marketplace-orders/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMalformedRequests(t *testing.T) {
	valid := []LineItemRequest{{ProductID: "P1", Quantity: 1}}

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"empty shop", PlaceOrderRequest{ShopID: " ", UserID: "U1", Items: valid}},
		{"empty user", PlaceOrderRequest{ShopID: "S1", UserID: "", Items: valid}},
		{"no items", PlaceOrderRequest{ShopID: "S1", UserID: "U1"}},
		{"empty product id", PlaceOrderRequest{ShopID: "S1", UserID: "U1", Items: []LineItemRequest{{ProductID: "", Quantity: 1}}}},
		{"zero quantity", PlaceOrderRequest{ShopID: "S1", UserID: "U1", Items: []LineItemRequest{{ProductID: "P1", Quantity: 0}}}},
		{"negative quantity", PlaceOrderRequest{ShopID: "S1", UserID: "U1", Items: []LineItemRequest{{ProductID: "P1", Quantity: -2}}}},
		{"merged overflow", PlaceOrderRequest{ShopID: "S1", UserID: "U1", Items: []LineItemRequest{
			{ProductID: "P1", Quantity: math.MaxInt32},
			{ProductID: "P1", Quantity: 1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestValidateMergesAndSortsItems(t *testing.T) {
	vr, err := validate(PlaceOrderRequest{
		ShopID: " S1 ",
		UserID: "U1",
		Items: []LineItemRequest{
			{ProductID: "P9", Quantity: 1},
			{ProductID: "P1", Quantity: 2},
			{ProductID: " P9", Quantity: 4},
			{ProductID: "P1", Quantity: 3},
		},
		PaymentMethod: " card ",
		Status:        "",
	})
	require.NoError(t, err)

	assert.Equal(t, "S1", vr.shopID)
	assert.Equal(t, []LineItemRequest{
		{ProductID: "P1", Quantity: 5},
		{ProductID: "P9", Quantity: 5},
	}, vr.items)
	assert.Equal(t, []string{"P1", "P9"}, vr.productIDs())
	assert.Equal(t, "card", vr.paymentMethod)
	assert.Equal(t, models.OrderStatusPending, vr.status)
}
