package models

import "time"

// Product represents a vendor's product in the catalog
type Product struct {
	ID        int64     `db:"id" json:"id"`
	VendorID  int64     `db:"vendor_id" json:"vendor_id"`
	SKU       string    `db:"sku" json:"sku"`
	Name      string    `db:"name" json:"name"`
	BasePrice float64   `db:"base_price" json:"base_price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Variant represents one purchasable configuration of a product.
// Attributes holds the name/value pairs serialized as JSON.
type Variant struct {
	ID            int64     `db:"id" json:"id"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	SKU           string    `db:"sku" json:"sku"`
	Name          string    `db:"name" json:"name"`
	Price         float64   `db:"price" json:"price"`
	DiscountPrice float64   `db:"discount_price" json:"discount_price"`
	Stock         int       `db:"stock" json:"stock"`
	Attributes    string    `db:"attributes" json:"attributes"`
	Image         string    `db:"image" json:"image,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Order represents a placed checkout
type Order struct {
	ID             int64     `db:"id" json:"id"`
	SessionID      string    `db:"session_id" json:"session_id"`
	ShippingMethod string    `db:"shipping_method" json:"shipping_method"`
	PromoCode      string    `db:"promo_code" json:"promo_code,omitempty"`
	Subtotal       float64   `db:"subtotal" json:"subtotal"`
	ShippingCost   float64   `db:"shipping_cost" json:"shipping_cost"`
	DiscountAmount float64   `db:"discount_amount" json:"discount_amount"`
	Total          float64   `db:"total" json:"total"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents one cart line frozen into a placed order
type OrderItem struct {
	ID         int64   `db:"id" json:"id"`
	OrderID    int64   `db:"order_id" json:"order_id"`
	VariantSKU string  `db:"variant_sku" json:"variant_sku"`
	Quantity   int     `db:"quantity" json:"quantity"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusFailed    = "FAILED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
