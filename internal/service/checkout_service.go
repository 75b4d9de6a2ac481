package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/pricing"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInsufficientStock is returned when a cart line cannot be reserved
var ErrInsufficientStock = errors.New("insufficient stock for one or more items")

// CheckoutService handles checkout session and order placement logic
type CheckoutService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	stockClient    *StockClient
	catalog        *pricing.Catalog
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	stockClient *StockClient,
	catalog *pricing.Catalog,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		stockClient:    stockClient,
		catalog:        catalog,
		logger:         util.GetLogger(),
	}
}

// ShippingMethods returns the shipping catalog for display
func (s *CheckoutService) ShippingMethods() []pricing.ShippingOption {
	return s.catalog.Options
}

// SetItems replaces the cart lines of a checkout session
func (s *CheckoutService) SetItems(ctx context.Context, sessionID string, lines []pricing.CartLine) error {
	for _, line := range lines {
		if line.Quantity < 1 {
			return fmt.Errorf("invalid quantity %d for item %s", line.Quantity, line.ID)
		}
	}

	session, err := s.redis.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.Lines = lines
	return s.redis.SaveSession(ctx, sessionID, session)
}

// SelectShipping selects a shipping method for the session. The key is
// user input here, so an unknown key is a validation error rather than
// an integration bug.
func (s *CheckoutService) SelectShipping(ctx context.Context, sessionID, methodKey string) error {
	if _, ok := s.catalog.Option(methodKey); !ok {
		return fmt.Errorf("unknown shipping method: %q", methodKey)
	}

	session, err := s.redis.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.ShippingMethod = methodKey
	return s.redis.SaveSession(ctx, sessionID, session)
}

// ApplyPromo applies a promo code to the session. Rejections leave the
// session state untouched, including any already-active code.
func (s *CheckoutService) ApplyPromo(ctx context.Context, sessionID, code string) (pricing.Session, error) {
	session, err := s.redis.GetSession(ctx, sessionID)
	if err != nil {
		return pricing.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	applied, err := session.Promo.Apply(code)
	if err != nil {
		util.PromoRejectedTotal.WithLabelValues(promoRejectReason(err)).Inc()
		return session.Promo, err
	}

	session.Promo = applied
	if err := s.redis.SaveSession(ctx, sessionID, session); err != nil {
		return pricing.Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	util.PromoAppliedTotal.Inc()
	s.logger.Info("Promo code applied",
		zap.String("session_id", sessionID),
		zap.String("code", applied.AppliedCode))
	return applied, nil
}

func promoRejectReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrEmptyCode):
		return "empty"
	case errors.Is(err, pricing.ErrCodeAlreadyApplied):
		return "already_applied"
	default:
		return "unknown_code"
	}
}

// RemovePromo clears the applied code, returning pricing to the
// no-promo state.
func (s *CheckoutService) RemovePromo(ctx context.Context, sessionID string) error {
	session, err := s.redis.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.Promo = session.Promo.Remove()
	return s.redis.SaveSession(ctx, sessionID, session)
}

// QuoteResponse is the pricing breakdown returned to the storefront,
// rounded for display.
type QuoteResponse struct {
	Subtotal       float64            `json:"subtotal"`
	ShippingCost   float64            `json:"shipping_cost"`
	DiscountAmount float64            `json:"discount_amount"`
	Total          float64            `json:"total"`
	IsFreeShipping bool               `json:"is_free_shipping"`
	ShippingMethod string             `json:"shipping_method"`
	PromoCode      string             `json:"promo_code,omitempty"`
	Lines          []pricing.CartLine `json:"lines"`
}

// Quote computes the current pricing breakdown for a session
func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (*QuoteResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Quote")
	defer span.End()

	session, err := s.redis.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	result, err := s.quoteSession(session)
	if err != nil {
		return nil, err
	}

	return &QuoteResponse{
		Subtotal:       pricing.Round2(result.Subtotal),
		ShippingCost:   pricing.Round2(result.ShippingCost),
		DiscountAmount: pricing.Round2(result.DiscountAmount),
		Total:          pricing.Round2(result.Total),
		IsFreeShipping: result.IsFreeShipping,
		ShippingMethod: session.ShippingMethod,
		PromoCode:      session.Promo.AppliedCode,
		Lines:          session.Lines,
	}, nil
}

// quoteSession runs the pricing engine over session state. The session
// only ever holds catalog method keys, so an engine error here is an
// integration bug and is surfaced as such.
func (s *CheckoutService) quoteSession(session *redisclient.CheckoutSession) (pricing.Result, error) {
	result, err := s.catalog.Compute(
		session.Lines,
		session.ShippingMethod,
		session.Promo.AppliedCode,
		session.Promo.DiscountPercent(),
	)
	if err != nil {
		return pricing.Result{}, fmt.Errorf("pricing failed: %w", err)
	}

	util.QuotesComputedTotal.Inc()
	if result.IsFreeShipping {
		util.FreeShippingGrantedTotal.Inc()
	}
	return result, nil
}

// PlaceOrderRequest represents a request to place a checkout
type PlaceOrderRequest struct {
	SessionID      string `json:"session_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// PlaceOrderResponse represents the response after placing an order
type PlaceOrderResponse struct {
	OrderID int64   `json:"order_id"`
	Status  string  `json:"status"`
	Total   float64 `json:"total"`
}

// PlaceOrder freezes the session into an order: the pricing breakdown
// is recomputed server-side, stock is reserved per line with
// compensation on failure, and an OrderPlaced event is published for
// the confirmation worker.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existingOrder, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingOrder != nil {
		s.logger.Info("Duplicate placement request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existingOrder.ID))
		return &PlaceOrderResponse{
			OrderID: existingOrder.ID,
			Status:  existingOrder.Status,
			Total:   existingOrder.Total,
		}, nil
	}

	session, err := s.redis.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(session.Lines) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("checkout session %s has no items", req.SessionID)
	}

	if err := s.validateLines(ctx, session.Lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	result, err := s.quoteSession(session)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("pricing_error").Inc()
		return nil, err
	}

	if err := s.reserveLines(ctx, session.Lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("reservation_failed").Inc()
		return nil, err
	}

	order := &models.Order{
		SessionID:      req.SessionID,
		ShippingMethod: session.ShippingMethod,
		PromoCode:      session.Promo.AppliedCode,
		Subtotal:       result.Subtotal,
		ShippingCost:   result.ShippingCost,
		DiscountAmount: result.DiscountAmount,
		Total:          result.Total,
		Status:         models.OrderStatusPlaced,
		IdempotencyKey: req.IdempotencyKey,
	}

	orderItems := make([]models.OrderItem, len(session.Lines))
	for i, line := range session.Lines {
		orderItems[i] = models.OrderItem{
			VariantSKU: line.ID,
			Quantity:   line.Quantity,
			UnitPrice:  line.EffectivePrice(),
		}
	}

	if err := s.store.CreateOrderWithItems(ctx, order, orderItems); err != nil {
		// The transaction rolled back, so nothing was persisted and a
		// retry with the same idempotency key starts clean. Only the
		// reservations need compensating.
		s.rollbackReservations(ctx, session.Lines)
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	items := make([]models.OrderItemData, len(orderItems))
	for i, item := range orderItems {
		items[i] = models.OrderItemData{
			VariantSKU: item.VariantSKU,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Float64("total", order.Total))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:        order.ID,
		SessionID:      order.SessionID,
		ShippingMethod: order.ShippingMethod,
		PromoCode:      order.PromoCode,
		Total:          order.Total,
		Items:          items,
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	if err := s.redis.DeleteSession(ctx, req.SessionID); err != nil {
		s.logger.Warn("Failed to clear checkout session", zap.Error(err))
	}

	return &PlaceOrderResponse{
		OrderID: order.ID,
		Status:  order.Status,
		Total:   order.Total,
	}, nil
}

// validateLines checks that every cart line refers to a known variant
// before anything is reserved or persisted
func (s *CheckoutService) validateLines(ctx context.Context, lines []pricing.CartLine) error {
	skus := make([]string, len(lines))
	for i, line := range lines {
		skus[i] = line.ID
	}

	variants, err := s.store.GetVariantsBySKUs(ctx, skus)
	if err != nil {
		return fmt.Errorf("failed to validate cart items: %w", err)
	}

	known := make(map[string]bool, len(variants))
	for _, v := range variants {
		known[v.SKU] = true
	}

	for _, line := range lines {
		if !known[line.ID] {
			return fmt.Errorf("unknown variant in cart: %s", line.ID)
		}
	}
	return nil
}

// reserveLines reserves stock for all cart lines, rolling back on any
// failure
func (s *CheckoutService) reserveLines(ctx context.Context, lines []pricing.CartLine) error {
	start := time.Now()
	defer func() {
		util.StockReserveLatency.Observe(time.Since(start).Seconds())
	}()

	for i, line := range lines {
		success, err := s.stockClient.Reserve(ctx, line.ID, line.Quantity)
		if err != nil {
			util.StockReservationsFailed.WithLabelValues("error").Inc()
			s.rollbackReservations(ctx, lines[:i])
			return fmt.Errorf("failed to reserve stock for %s: %w", line.ID, err)
		}

		if !success {
			util.StockReservationsFailed.WithLabelValues("insufficient_stock").Inc()
			s.rollbackReservations(ctx, lines[:i])
			return fmt.Errorf("%w: %s", ErrInsufficientStock, line.ID)
		}
	}

	return nil
}

// rollbackReservations releases already-reserved lines (compensation)
func (s *CheckoutService) rollbackReservations(ctx context.Context, lines []pricing.CartLine) {
	for _, line := range lines {
		if err := s.stockClient.Release(ctx, line.ID, line.Quantity); err != nil {
			s.logger.Error("Failed to compensate reservation",
				zap.String("sku", line.ID),
				zap.Error(err))
		}
	}
}

// CancelOrder rolls back a placed order: reserved stock is released
// and the order is marked cancelled. Confirmed orders can no longer be
// cancelled here.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID int64, reason string) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CancelOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPlaced {
		return fmt.Errorf("order %d is %s and cannot be cancelled", orderID, order.Status)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	for _, item := range items {
		if err := s.stockClient.Release(ctx, item.VariantSKU, item.Quantity); err != nil {
			s.logger.Error("Failed to release stock during cancellation",
				zap.String("sku", item.VariantSKU),
				zap.Error(err))
		}
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		Reason:  reason,
	}

	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason))
	return nil
}

// ListSessionOrders retrieves the orders placed from a checkout
// session, newest first
func (s *CheckoutService) ListSessionOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	return s.store.GetOrdersBySessionID(ctx, sessionID)
}

// GetOrder retrieves an order with its items
func (s *CheckoutService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}
