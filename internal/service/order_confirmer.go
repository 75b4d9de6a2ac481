package service

import (
	"context"
	"fmt"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderConfirmer finalizes placed orders: it commits the stock
// reserved at placement and moves the order to CONFIRMED. Event
// processing is idempotent via the processed_events table.
type OrderConfirmer struct {
	store          *store.Store
	stockClient    *StockClient
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderConfirmer creates a new order confirmer
func NewOrderConfirmer(
	store *store.Store,
	stockClient *StockClient,
	eventPublisher *broker.EventPublisher,
) *OrderConfirmer {
	return &OrderConfirmer{
		store:          store,
		stockClient:    stockClient,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// HandleOrderPlaced processes an OrderPlaced event
func (oc *OrderConfirmer) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderConfirmer.HandleOrderPlaced")
	defer span.End()

	processed, err := oc.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		oc.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	oc.logger.Info("Confirming order",
		zap.Int64("order_id", event.OrderID),
		zap.String("session_id", event.SessionID))

	for _, item := range event.Items {
		if err := oc.stockClient.Commit(ctx, item.VariantSKU, item.Quantity); err != nil {
			oc.logger.Error("Failed to commit stock",
				zap.String("sku", item.VariantSKU),
				zap.Error(err))
		}
	}

	if err := oc.store.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusConfirmed); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	util.OrdersConfirmedTotal.Inc()

	confirmed := &models.OrderConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderConfirmed,
			Timestamp: time.Now(),
		},
		OrderID:   event.OrderID,
		SessionID: event.SessionID,
	}

	if err := oc.eventPublisher.PublishOrderConfirmed(ctx, confirmed); err != nil {
		oc.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
	}

	if err := oc.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		oc.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	oc.logger.Info("Order confirmed", zap.Int64("order_id", event.OrderID))
	return nil
}
