package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/internal/pricing"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/reserve_stock.lua
var reserveStockScript string

//go:embed scripts/release_stock.lua
var releaseStockScript string

//go:embed scripts/commit_stock.lua
var commitStockScript string

type Client struct {
	rdb           *redis.Client
	sessionTTL    time.Duration
	reserveScript *redis.Script
	releaseScript *redis.Script
	commitScript  *redis.Script
}

// NewClient creates a new Redis client with stock scripts loaded
func NewClient(addr, password string, db int, sessionTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		sessionTTL:    sessionTTL,
		reserveScript: redis.NewScript(reserveStockScript),
		releaseScript: redis.NewScript(releaseStockScript),
		commitScript:  redis.NewScript(commitStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("checkout:%s", sessionID)
}

// CheckoutSession is the per-session checkout state held in Redis
type CheckoutSession struct {
	Lines          []pricing.CartLine `json:"lines"`
	ShippingMethod string             `json:"shipping_method"`
	Promo          pricing.Session    `json:"promo"`
}

// SaveSession stores the checkout session state with the session TTL
func (c *Client) SaveSession(ctx context.Context, sessionID string, session *CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return c.rdb.Set(ctx, sessionKey(sessionID), data, c.sessionTTL).Err()
}

// GetSession loads the checkout session state. A missing session is
// returned as a fresh one with standard shipping selected.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	data, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return &CheckoutSession{ShippingMethod: pricing.MethodStandard}, nil
	}
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a checkout session, used after placement
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func stockKey(sku string) string {
	return fmt.Sprintf("stock:%s", sku)
}

// ReserveStock atomically reserves stock for a variant SKU.
// Returns true if reservation successful, false if insufficient stock.
func (c *Client) ReserveStock(ctx context.Context, sku string, quantity int) (bool, error) {
	result, err := c.reserveScript.Run(ctx, c.rdb, []string{stockKey(sku)}, quantity).Result()
	if err != nil {
		return false, fmt.Errorf("reserve stock script failed: %w", err)
	}

	success, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return success == 1, nil
}

// ReleaseStock atomically releases reserved stock (compensation)
func (c *Client) ReleaseStock(ctx context.Context, sku string, quantity int) error {
	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{stockKey(sku)}, quantity).Result(); err != nil {
		return fmt.Errorf("release stock script failed: %w", err)
	}
	return nil
}

// CommitStock atomically commits reserved stock (final deduction)
func (c *Client) CommitStock(ctx context.Context, sku string, quantity int) error {
	if _, err := c.commitScript.Run(ctx, c.rdb, []string{stockKey(sku)}, quantity).Result(); err != nil {
		return fmt.Errorf("commit stock script failed: %w", err)
	}
	return nil
}

// InitStock seeds stock counts for a variant SKU
func (c *Client) InitStock(ctx context.Context, sku string, available, reserved int) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, stockKey(sku), "available", available)
	pipe.HSet(ctx, stockKey(sku), "reserved", reserved)

	_, err := pipe.Exec(ctx)
	return err
}

// GetStock retrieves current stock counts for a variant SKU
func (c *Client) GetStock(ctx context.Context, sku string) (available, reserved int, err error) {
	result, err := c.rdb.HGetAll(ctx, stockKey(sku)).Result()
	if err != nil {
		return 0, 0, err
	}

	if len(result) == 0 {
		return 0, 0, fmt.Errorf("stock not found for sku %s", sku)
	}

	var availableInt, reservedInt int
	fmt.Sscanf(result["available"], "%d", &availableInt)
	fmt.Sscanf(result["reserved"], "%d", &reservedInt)

	return availableInt, reservedInt, nil
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
