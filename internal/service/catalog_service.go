package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/store"
	"checkout-service/internal/util"
	"checkout-service/internal/variant"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles vendor product creation and variant
// generation
type CatalogService struct {
	store          *store.Store
	stockClient    *StockClient
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	store *store.Store,
	stockClient *StockClient,
	eventPublisher *broker.EventPublisher,
) *CatalogService {
	return &CatalogService{
		store:          store,
		stockClient:    stockClient,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateProductRequest represents a vendor's product-creation
// submission
type CreateProductRequest struct {
	VendorID   int64               `json:"vendor_id" binding:"required"`
	Name       string              `json:"name" binding:"required"`
	SKU        string              `json:"sku" binding:"required"`
	BasePrice  float64             `json:"base_price" binding:"required"`
	Attributes []variant.Attribute `json:"attributes" binding:"required,min=1"`
}

// CreateProductResponse carries the created product and its generated
// variants
type CreateProductResponse struct {
	Product  *models.Product  `json:"product"`
	Variants []models.Variant `json:"variants"`
}

// CreateProduct validates generation preconditions, materializes every
// attribute combination as a variant, and persists the result. The
// generator is only invoked once preconditions hold.
func (cs *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*CreateProductResponse, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := variant.CheckPreconditions(req.Attributes, req.SKU); err != nil {
		return nil, err
	}

	candidates, collisions := variant.Generate(nil, req.Attributes, req.SKU, req.BasePrice)
	util.VariantsGeneratedTotal.Add(float64(len(candidates)))
	util.SKUCollisionsResolvedTotal.Add(float64(collisions))

	product := &models.Product{
		VendorID:  req.VendorID,
		SKU:       req.SKU,
		Name:      req.Name,
		BasePrice: req.BasePrice,
	}

	if err := cs.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	variants := make([]models.Variant, 0, len(candidates))
	skus := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		attrs, err := json.Marshal(candidate.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal attributes: %w", err)
		}

		v := models.Variant{
			ProductID:     product.ID,
			SKU:           candidate.SKU,
			Name:          candidate.Name,
			Price:         candidate.Price,
			DiscountPrice: candidate.DiscountPrice,
			Stock:         candidate.Stock,
			Attributes:    string(attrs),
			Image:         candidate.Image,
		}

		if err := cs.store.CreateVariant(ctx, &v); err != nil {
			return nil, fmt.Errorf("failed to create variant %s: %w", v.SKU, err)
		}

		if err := cs.stockClient.Seed(ctx, v.SKU, v.Stock); err != nil {
			cs.logger.Error("Failed to seed stock fast path",
				zap.String("sku", v.SKU),
				zap.Error(err))
		}

		variants = append(variants, v)
		skus = append(skus, v.SKU)
	}

	cs.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int("variants", len(variants)))

	event := &models.VariantsGeneratedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeVariantsGenerated,
			Timestamp: time.Now(),
		},
		ProductID: product.ID,
		BaseSKU:   product.SKU,
		SKUs:      skus,
	}

	if err := cs.eventPublisher.PublishVariantsGenerated(ctx, event); err != nil {
		cs.logger.Error("Failed to publish VariantsGenerated event", zap.Error(err))
	}

	return &CreateProductResponse{Product: product, Variants: variants}, nil
}

// AddAttributesRequest extends a product's attribute set
type AddAttributesRequest struct {
	Attributes []variant.Attribute `json:"attributes" binding:"required,min=1"`
}

// AddAttributes re-runs generation over the extended attribute set.
// Existing combinations are untouched; only the delta is appended.
func (cs *CatalogService) AddAttributes(ctx context.Context, productID int64, req *AddAttributesRequest) (*CreateProductResponse, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddAttributes")
	defer span.End()

	product, err := cs.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := variant.CheckPreconditions(req.Attributes, product.SKU); err != nil {
		return nil, err
	}

	existing, err := cs.store.GetVariantsByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	existingCandidates := make([]variant.Candidate, 0, len(existing))
	for _, v := range existing {
		var attrs map[string]string
		if err := json.Unmarshal([]byte(v.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attributes for %s: %w", v.SKU, err)
		}
		existingCandidates = append(existingCandidates, variant.Candidate{
			SKU:        v.SKU,
			Attributes: attrs,
		})
	}

	candidates, collisions := variant.Generate(existingCandidates, req.Attributes, product.SKU, product.BasePrice)
	util.VariantsGeneratedTotal.Add(float64(len(candidates)))
	util.SKUCollisionsResolvedTotal.Add(float64(collisions))

	created := make([]models.Variant, 0, len(candidates))
	skus := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		attrs, err := json.Marshal(candidate.Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal attributes: %w", err)
		}

		v := models.Variant{
			ProductID:     product.ID,
			SKU:           candidate.SKU,
			Name:          candidate.Name,
			Price:         candidate.Price,
			DiscountPrice: candidate.DiscountPrice,
			Stock:         candidate.Stock,
			Attributes:    string(attrs),
		}

		if err := cs.store.CreateVariant(ctx, &v); err != nil {
			return nil, fmt.Errorf("failed to create variant %s: %w", v.SKU, err)
		}

		if err := cs.stockClient.Seed(ctx, v.SKU, v.Stock); err != nil {
			cs.logger.Error("Failed to seed stock fast path",
				zap.String("sku", v.SKU),
				zap.Error(err))
		}

		created = append(created, v)
		skus = append(skus, v.SKU)
	}

	if len(skus) > 0 {
		event := &models.VariantsGeneratedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeVariantsGenerated,
				Timestamp: time.Now(),
			},
			ProductID: product.ID,
			BaseSKU:   product.SKU,
			SKUs:      skus,
		}

		if err := cs.eventPublisher.PublishVariantsGenerated(ctx, event); err != nil {
			cs.logger.Error("Failed to publish VariantsGenerated event", zap.Error(err))
		}
	}

	return &CreateProductResponse{Product: product, Variants: created}, nil
}

// ListVendorProducts retrieves a vendor's products
func (cs *CatalogService) ListVendorProducts(ctx context.Context, vendorID int64) ([]models.Product, error) {
	return cs.store.GetProductsByVendor(ctx, vendorID)
}

// VariantStockResponse reports the live stock counts of a variant
type VariantStockResponse struct {
	SKU       string `json:"sku"`
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
}

// VariantStock reports the current stock counts for a variant
func (cs *CatalogService) VariantStock(ctx context.Context, sku string) (*VariantStockResponse, error) {
	available, reserved, err := cs.stockClient.Counts(ctx, sku)
	if err != nil {
		return nil, err
	}
	return &VariantStockResponse{SKU: sku, Available: available, Reserved: reserved}, nil
}

// GetProduct retrieves a product with its variants
func (cs *CatalogService) GetProduct(ctx context.Context, productID int64) (*CreateProductResponse, error) {
	product, err := cs.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	variants, err := cs.store.GetVariantsByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &CreateProductResponse{Product: product, Variants: variants}, nil
}
