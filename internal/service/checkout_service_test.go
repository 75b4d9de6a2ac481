package service

import (
	"testing"

	"checkout-service/internal/pricing"
	"checkout-service/internal/redisclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingMethods(t *testing.T) {
	cs := &CheckoutService{catalog: pricing.DefaultCatalog()}

	methods := cs.ShippingMethods()
	require.Len(t, methods, 2)
	assert.Equal(t, pricing.MethodStandard, methods[0].Key)
	assert.Equal(t, pricing.MethodExpress, methods[1].Key)
}

func TestQuoteSession(t *testing.T) {
	cs := &CheckoutService{catalog: pricing.DefaultCatalog()}

	discount := 40.0
	session := &redisclient.CheckoutSession{
		Lines: []pricing.CartLine{
			{ID: "SKU-1", Price: 100, Quantity: 2},
			{ID: "SKU-2", Price: 50, DiscountPrice: &discount, Quantity: 1},
		},
		ShippingMethod: pricing.MethodStandard,
	}

	result, err := cs.quoteSession(session)
	require.NoError(t, err)

	assert.Equal(t, 240.0, result.Subtotal)
	assert.Equal(t, 120.0, result.ShippingCost)
	assert.Equal(t, 360.0, result.Total)
}

func TestQuoteSessionWithPromo(t *testing.T) {
	cs := &CheckoutService{catalog: pricing.DefaultCatalog()}

	promo, err := pricing.Session{}.Apply("welcome10")
	require.NoError(t, err)

	session := &redisclient.CheckoutSession{
		Lines: []pricing.CartLine{
			{ID: "SKU-1", Price: 500, Quantity: 2},
		},
		ShippingMethod: pricing.MethodStandard,
		Promo:          promo,
	}

	result, err := cs.quoteSession(session)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.Subtotal)
	assert.Equal(t, 100.0, result.DiscountAmount)
	assert.Equal(t, 1020.0, result.Total)
}

func TestPromoRejectReason(t *testing.T) {
	assert.Equal(t, "empty", promoRejectReason(pricing.ErrEmptyCode))
	assert.Equal(t, "already_applied", promoRejectReason(pricing.ErrCodeAlreadyApplied))
	assert.Equal(t, "unknown_code", promoRejectReason(pricing.ErrUnknownCode))
}

func TestPlaceOrder(t *testing.T) {
	// Requires Redis, Postgres and Kafka; covered by the integration
	// environment, not unit tests.
	t.Skip("Integration test - requires backing services")
}
