package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 {
	return &v
}

func TestComputeSubtotal(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 100, Quantity: 2},
		{ID: "b", Price: 50, DiscountPrice: fp(40), Quantity: 1},
	}

	result, err := catalog.Compute(lines, MethodStandard, "", 0)
	require.NoError(t, err)

	assert.Equal(t, 240.0, result.Subtotal)
	assert.Equal(t, 120.0, result.ShippingCost)
	assert.Equal(t, 0.0, result.DiscountAmount)
	assert.Equal(t, 360.0, result.Total)
	assert.False(t, result.IsFreeShipping)
}

func TestComputeFreeShippingThreshold(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 1000, Quantity: 2},
	}

	result, err := catalog.Compute(lines, MethodStandard, "", 0)
	require.NoError(t, err)

	assert.True(t, result.IsFreeShipping)
	assert.Equal(t, 0.0, result.ShippingCost)
	assert.Equal(t, 2000.0, result.Total)
}

func TestComputeExpressNeverFree(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 1000, Quantity: 5},
	}

	// Neither a large subtotal nor FREESHIP waives express shipping.
	result, err := catalog.Compute(lines, MethodExpress, "", 0)
	require.NoError(t, err)
	assert.False(t, result.IsFreeShipping)
	assert.Equal(t, 250.0, result.ShippingCost)

	result, err = catalog.Compute(lines, MethodExpress, CodeFreeShip, 0)
	require.NoError(t, err)
	assert.False(t, result.IsFreeShipping)
	assert.Equal(t, 250.0, result.ShippingCost)
}

func TestComputePercentDiscount(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 500, Quantity: 2},
	}

	result, err := catalog.Compute(lines, MethodStandard, CodeWelcome10, 10)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.Subtotal)
	assert.Equal(t, 100.0, result.DiscountAmount)
	assert.Equal(t, 120.0, result.ShippingCost)
	assert.Equal(t, 1020.0, result.Total)
}

func TestComputeFreeShipIsShippingOnly(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 300, Quantity: 1},
	}

	// FREESHIP waives standard shipping but never discounts the price.
	result, err := catalog.Compute(lines, MethodStandard, CodeFreeShip, 0)
	require.NoError(t, err)

	assert.True(t, result.IsFreeShipping)
	assert.Equal(t, 0.0, result.ShippingCost)
	assert.Equal(t, 0.0, result.DiscountAmount)
	assert.Equal(t, 300.0, result.Total)
}

func TestComputeFreeShipCaseInsensitive(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 300, Quantity: 1},
	}

	result, err := catalog.Compute(lines, MethodStandard, "freeship", 0)
	require.NoError(t, err)
	assert.True(t, result.IsFreeShipping)
}

func TestComputeWaiverIsTableDriven(t *testing.T) {
	// A waiver's method comes from its table entry, not from the
	// calculation: a hypothetical express waiver works without any
	// change to Compute.
	promoTable["EXPRESSSHIP"] = Effect{Kind: EffectShippingWaiver, Method: MethodExpress}
	defer delete(promoTable, "EXPRESSSHIP")

	catalog := DefaultCatalog()
	lines := []CartLine{
		{ID: "a", Price: 300, Quantity: 1},
	}

	result, err := catalog.Compute(lines, MethodExpress, "expressship", 0)
	require.NoError(t, err)
	assert.True(t, result.IsFreeShipping)
	assert.Equal(t, 0.0, result.ShippingCost)

	// The same waiver does nothing for a method it does not name.
	result, err = catalog.Compute(lines, MethodStandard, "expressship", 0)
	require.NoError(t, err)
	assert.False(t, result.IsFreeShipping)
	assert.Equal(t, 120.0, result.ShippingCost)
}

func TestComputeUnknownMethod(t *testing.T) {
	catalog := DefaultCatalog()

	_, err := catalog.Compute(nil, "overnight", "", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shipping method")
}

func TestComputeTotalIdentity(t *testing.T) {
	catalog := DefaultCatalog()

	lines := []CartLine{
		{ID: "a", Price: 99.99, Quantity: 3},
		{ID: "b", Price: 250, DiscountPrice: fp(199.5), Quantity: 2},
	}

	cases := []struct {
		method  string
		promo   string
		percent float64
	}{
		{MethodStandard, "", 0},
		{MethodStandard, CodeWelcome10, 10},
		{MethodStandard, CodeFreeShip, 0},
		{MethodExpress, "", 0},
		{MethodExpress, CodeWelcome10, 10},
		{MethodExpress, CodeFreeShip, 0},
	}

	for _, tc := range cases {
		result, err := catalog.Compute(lines, tc.method, tc.promo, tc.percent)
		require.NoError(t, err)

		assert.InDelta(t, result.Subtotal+result.ShippingCost-result.DiscountAmount, result.Total, 1e-9)
		assert.GreaterOrEqual(t, result.Subtotal, 0.0)
		assert.LessOrEqual(t, result.DiscountAmount, result.Subtotal)
	}
}

func TestEffectivePrice(t *testing.T) {
	line := CartLine{Price: 100, Quantity: 1}
	assert.Equal(t, 100.0, line.EffectivePrice())

	line.DiscountPrice = fp(80)
	assert.Equal(t, 80.0, line.EffectivePrice())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.57, Round2(10.567))
	assert.Equal(t, 3.14, Round2(3.14159))
	assert.Equal(t, 100.0, Round2(100.0000001))
}

func TestCatalogOption(t *testing.T) {
	catalog := DefaultCatalog()

	standard, ok := catalog.Option(MethodStandard)
	require.True(t, ok)
	assert.Equal(t, 120.0, standard.Cost)

	express, ok := catalog.Option(MethodExpress)
	require.True(t, ok)
	assert.Equal(t, 250.0, express.Cost)

	_, ok = catalog.Option("overnight")
	assert.False(t, ok)
}
