package service

import (
	"context"
	"strings"
	"time"

	"checkout-service/internal/redisclient"
	"checkout-service/internal/store"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// StockClient handles variant stock operations. Redis is the fast
// path; the variants table stays the source of truth.
type StockClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockClient creates a new stock client
func NewStockClient(store *store.Store, redis *redisclient.Client) *StockClient {
	return &StockClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Reserve reserves stock for a variant (fast path via Redis).
// Returns false when available stock is insufficient.
func (sc *StockClient) Reserve(ctx context.Context, sku string, quantity int) (bool, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.Reserve")
	defer span.End()

	success, err := sc.redis.ReserveStock(ctx, sku, quantity)
	if err != nil {
		sc.logger.Warn("Redis reservation failed, falling back to DB",
			zap.String("sku", sku),
			zap.Error(err))

		return sc.reserveDB(ctx, sku, quantity)
	}

	if !success {
		return false, nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sc.store.ReserveStockTx(ctx, sku, quantity); err != nil {
			sc.logger.Error("Failed to sync reservation to DB",
				zap.String("sku", sku),
				zap.Error(err))
		}
	}()

	return true, nil
}

// reserveDB reserves stock using a database transaction (fallback)
func (sc *StockClient) reserveDB(ctx context.Context, sku string, quantity int) (bool, error) {
	err := sc.store.ReserveStockTx(ctx, sku, quantity)
	if err != nil {
		if strings.Contains(err.Error(), "insufficient stock") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release releases reserved stock (compensation)
func (sc *StockClient) Release(ctx context.Context, sku string, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockClient.Release")
	defer span.End()

	if err := sc.redis.ReleaseStock(ctx, sku, quantity); err != nil {
		sc.logger.Error("Failed to release stock in Redis",
			zap.String("sku", sku),
			zap.Error(err))
	}

	return sc.store.ReleaseStock(ctx, sku, quantity)
}

// Commit commits reserved stock (final deduction)
func (sc *StockClient) Commit(ctx context.Context, sku string, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockClient.Commit")
	defer span.End()

	return sc.redis.CommitStock(ctx, sku, quantity)
}

// Counts returns the available and reserved quantities for a variant.
// When the fast path has no entry the variants table answers, with
// reserved unknown and reported as zero.
func (sc *StockClient) Counts(ctx context.Context, sku string) (available, reserved int, err error) {
	available, reserved, err = sc.redis.GetStock(ctx, sku)
	if err == nil {
		return available, reserved, nil
	}

	sc.logger.Warn("Redis stock lookup failed, falling back to DB",
		zap.String("sku", sku),
		zap.Error(err))

	v, err := sc.store.GetVariantBySKU(ctx, sku)
	if err != nil {
		return 0, 0, err
	}
	return v.Stock, 0, nil
}

// Seed initializes the Redis fast path for a freshly created variant
func (sc *StockClient) Seed(ctx context.Context, sku string, stock int) error {
	return sc.redis.InitStock(ctx, sku, stock, 0)
}
