package pricing

import (
	"fmt"
	"math"
)

// Shipping method keys offered by the storefront
const (
	MethodStandard = "standard"
	MethodExpress  = "express"
)

// Default pricing policy values
const (
	DefaultStandardCost        = 120.0
	DefaultExpressCost         = 250.0
	DefaultFreeShippingMinimum = 2000.0
)

// ShippingOption is one delivery tier in the shipping catalog
type ShippingOption struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
}

// Catalog holds the shipping options and the free-shipping policy
type Catalog struct {
	Options             []ShippingOption
	FreeShippingMinimum float64
}

// NewCatalog builds a shipping catalog with the given tier costs
func NewCatalog(standardCost, expressCost, freeShippingMinimum float64) *Catalog {
	return &Catalog{
		Options: []ShippingOption{
			{
				Key:         MethodStandard,
				Name:        "Standard Delivery",
				Cost:        standardCost,
				Description: "Delivered in 4-7 business days",
			},
			{
				Key:         MethodExpress,
				Name:        "Express Delivery",
				Cost:        expressCost,
				Description: "Delivered in 1-2 business days",
			},
		},
		FreeShippingMinimum: freeShippingMinimum,
	}
}

// DefaultCatalog returns the catalog with the stock policy values
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultStandardCost, DefaultExpressCost, DefaultFreeShippingMinimum)
}

// Option looks up a shipping option by key
func (c *Catalog) Option(key string) (ShippingOption, bool) {
	for _, opt := range c.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return ShippingOption{}, false
}

// CartLine is one distinct product entry in a checkout session
type CartLine struct {
	ID            string   `json:"id"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Quantity      int      `json:"quantity"`
}

// EffectivePrice returns the discounted price when one is set
func (l CartLine) EffectivePrice() float64 {
	if l.DiscountPrice != nil {
		return *l.DiscountPrice
	}
	return l.Price
}

// Result is the derived pricing breakdown for a checkout session.
// Values are unrounded; callers round at display time.
type Result struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingCost   float64 `json:"shipping_cost"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
	IsFreeShipping bool    `json:"is_free_shipping"`
}

// Compute derives the pricing breakdown for a cart. The shipping method
// key must come from the catalog; an unknown key is an integration bug
// and is returned as an error rather than defaulted. promoCode is the
// already-validated active code (empty when none) and discountPercent
// its resolved percentage effect.
func (c *Catalog) Compute(lines []CartLine, methodKey, promoCode string, discountPercent float64) (Result, error) {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.EffectivePrice() * float64(line.Quantity)
	}

	option, ok := c.Option(methodKey)
	if !ok {
		return Result{}, fmt.Errorf("unknown shipping method: %q", methodKey)
	}

	// A shipping waiver only applies to the method it names, and the
	// subtotal threshold is a standard-only policy: express always
	// charges its cost regardless of subtotal.
	freeShipping := waiverApplies(promoCode, methodKey) ||
		(methodKey == MethodStandard && subtotal >= c.FreeShippingMinimum)

	shippingCost := option.Cost
	if freeShipping {
		shippingCost = 0
	}

	discountAmount := subtotal * discountPercent / 100

	return Result{
		Subtotal:       subtotal,
		ShippingCost:   shippingCost,
		DiscountAmount: discountAmount,
		Total:          subtotal + shippingCost - discountAmount,
		IsFreeShipping: freeShipping,
	}, nil
}

// Round2 rounds a value to two decimals for display
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
