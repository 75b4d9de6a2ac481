package models

import "time"

// Event types
const (
	EventTypeOrderPlaced       = "ORDER_PLACED"
	EventTypeOrderConfirmed    = "ORDER_CONFIRMED"
	EventTypeOrderCancelled    = "ORDER_CANCELLED"
	EventTypeVariantsGenerated = "VARIANTS_GENERATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a checkout is placed and its stock
// reserved
type OrderPlacedEvent struct {
	BaseEvent
	OrderID        int64           `json:"order_id"`
	SessionID      string          `json:"session_id"`
	ShippingMethod string          `json:"shipping_method"`
	PromoCode      string          `json:"promo_code,omitempty"`
	Total          float64         `json:"total"`
	Items          []OrderItemData `json:"items"`
}

// OrderConfirmedEvent published when reserved stock is committed
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	SessionID string `json:"session_id"`
}

// OrderCancelledEvent published when a placed order is rolled back
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// VariantsGeneratedEvent published after a product's variant
// combinations are materialized
type VariantsGeneratedEvent struct {
	BaseEvent
	ProductID int64    `json:"product_id"`
	BaseSKU   string   `json:"base_sku"`
	SKUs      []string `json:"skus"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	VariantSKU string  `json:"variant_sku"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}
