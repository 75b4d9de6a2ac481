package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateProduct creates a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (vendor_id, sku, name, base_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, product, query,
		product.VendorID, product.SKU, product.Name, product.BasePrice)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByVendor retrieves a vendor's products
func (s *Store) GetProductsByVendor(ctx context.Context, vendorID int64) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE vendor_id = $1 ORDER BY id", vendorID)
	return products, err
}

// CreateVariant creates a new product variant
func (s *Store) CreateVariant(ctx context.Context, variant *models.Variant) error {
	query := `
		INSERT INTO variants (product_id, sku, name, price, discount_price, stock, attributes, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, variant, query,
		variant.ProductID, variant.SKU, variant.Name, variant.Price,
		variant.DiscountPrice, variant.Stock, variant.Attributes, variant.Image)
}

// GetVariantsByProductID retrieves all variants of a product in
// insertion order
func (s *Store) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// GetVariantBySKU retrieves a variant by SKU
func (s *Store) GetVariantBySKU(ctx context.Context, sku string) (*models.Variant, error) {
	var variant models.Variant
	err := s.db.GetContext(ctx, &variant, "SELECT * FROM variants WHERE sku = $1", sku)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("variant not found: %s", sku)
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariantsBySKUs retrieves multiple variants by SKU
func (s *Store) GetVariantsBySKUs(ctx context.Context, skus []string) ([]models.Variant, error) {
	if len(skus) == 0 {
		return []models.Variant{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM variants WHERE sku IN (?)", skus)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var variants []models.Variant
	err = s.db.SelectContext(ctx, &variants, query, args...)
	return variants, err
}

// ReserveStockTx reserves variant stock within a transaction
// (FOR UPDATE lock)
func (s *Store) ReserveStockTx(ctx context.Context, sku string, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stock int
	err = tx.GetContext(ctx, &stock,
		"SELECT stock FROM variants WHERE sku = $1 FOR UPDATE", sku)
	if err != nil {
		return fmt.Errorf("failed to lock variant: %w", err)
	}

	if stock < quantity {
		return fmt.Errorf("insufficient stock: available=%d, requested=%d", stock, quantity)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE variants SET stock = stock - $1 WHERE sku = $2",
		quantity, sku)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	return tx.Commit()
}

// ReleaseStock returns reserved variant stock (compensation)
func (s *Store) ReleaseStock(ctx context.Context, sku string, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE variants SET stock = stock + $1 WHERE sku = $2",
		quantity, sku)
	return err
}
