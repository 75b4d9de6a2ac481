package worker

import (
	"context"

	"checkout-service/internal/broker"
	"checkout-service/internal/service"
	"checkout-service/internal/util"
)

// ConfirmationWorker consumes OrderPlaced events and finalizes them
type ConfirmationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewConfirmationWorker creates a new confirmation worker
func NewConfirmationWorker(
	consumer *broker.Consumer,
	confirmer *service.OrderConfirmer,
) *ConfirmationWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(confirmer.HandleOrderPlaced)

	return &ConfirmationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *ConfirmationWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting confirmation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ConfirmationWorker) Stop() error {
	util.GetLogger().Info("Stopping confirmation worker")
	return w.consumer.Close()
}
