package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/pkg/cache"
)

const productCacheTTL = 10 * time.Minute

// ProductRepository handles catalogue persistence. Single-product reads go
// through the Redis cache; every write invalidates the affected keys.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func productKey(id uint) string { return fmt.Sprintf("product:%d", id) }

// GetByID returns one product, cache first.
func (r *ProductRepository) GetByID(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	if cache.Get(productKey(id), &product) {
		return product, nil
	}

	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, &NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return models.Product{}, &PersistenceError{Op: "products: get", Err: err}
	}

	_ = cache.Set(productKey(id), product, productCacheTTL)
	return product, nil
}

// GetByCode returns one product by its short catalogue code.
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, &NotFoundError{Entity: "product", ID: code}
	}
	if err != nil {
		return models.Product{}, &PersistenceError{Op: "products: get by code", Err: err}
	}
	return product, nil
}

// ListAvailable returns all available products ordered by category and name.
func (r *ProductRepository) ListAvailable(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Order("category, name").
		Find(&products).Error
	if err != nil {
		return nil, &PersistenceError{Op: "products: list available", Err: err}
	}
	return products, nil
}

// ListByCategory returns available products in one category.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("available = ? AND category = ?", true, category).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, &PersistenceError{Op: "products: list by category", Err: err}
	}
	return products, nil
}

// Categories returns the distinct categories that have available products.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("available = ?", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, &PersistenceError{Op: "products: categories", Err: err}
	}
	return categories, nil
}

// All returns the full catalogue including unavailable products (admin view).
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("category, name").Find(&products).Error
	if err != nil {
		return nil, &PersistenceError{Op: "products: all", Err: err}
	}
	return products, nil
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return &PersistenceError{Op: "products: create", Err: err}
	}
	return nil
}

// Update persists changes and drops the cached copy.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return &PersistenceError{Op: "products: update", Err: err}
	}
	_ = cache.Forget(productKey(product.ID))
	return nil
}

// Delete removes a product and drops the cached copy. Existing order items
// keep their snapshot of the product.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return &PersistenceError{Op: "products: delete", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "product", ID: id}
	}
	_ = cache.Forget(productKey(id))
	return nil
}

// UpsertByCode creates the product or updates the existing row with the
// same code. Used by the catalogue seeder so reseeding is idempotent.
func (r *ProductRepository) UpsertByCode(ctx context.Context, product *models.Product) error {
	var existing models.Product
	err := r.db.WithContext(ctx).Where("code = ?", product.Code).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.Create(ctx, product)
	case err != nil:
		return &PersistenceError{Op: "products: upsert", Err: err}
	}

	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	return r.Update(ctx, product)
}
