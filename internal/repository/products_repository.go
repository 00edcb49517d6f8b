package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"catalog-service/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
)

// Cache TTL constants
const (
	ProductCacheTTL = 5 * time.Minute
)

// ProductsRepositoryInterface abstracts the product store so the service
// layer can be tested against a mock.
type ProductsRepositoryInterface interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetProductByCode(ctx context.Context, productCode int64) (*models.Product, error)
	ExistsByProductCode(ctx context.Context, productCode int64) (bool, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) (bool, error)
	ListProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error)
}

// ProductsRepository handles database operations for products with an
// optional Redis read-through cache on single-product lookups.
type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ ProductsRepositoryInterface = (*ProductsRepository)(nil)

// NewProductsRepository creates a new ProductsRepository. A nil Redis
// client disables caching.
func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	return &ProductsRepository{db: db, redis: redis}
}

func productCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("catalog:product:%s", productID.String())
}

// cachedProduct carries the image blob explicitly. Product marshals with
// json:"-" on Image, so caching the model alone would drop the blob and a
// cache-hit edit would then persist a nil image.
type cachedProduct struct {
	Product models.Product `json:"product"`
	Image   []byte         `json:"image,omitempty"`
}

// invalidateProductCache drops the cached copy of a product after a write.
func (r *ProductsRepository) invalidateProductCache(ctx context.Context, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, productCacheKey(productID)).Err()
}

// CreateProduct creates a new product. The store assigns the surrogate ID.
func (r *ProductsRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).Create(product).Error
}

// GetProductByID retrieves a product by its surrogate ID with caching.
func (r *ProductsRepository) GetProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	cacheKey := productCacheKey(productID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedProduct
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				cached.Product.Image = cached.Image
				return &cached.Product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(cachedProduct{Product: product, Image: product.Image}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProductByCode retrieves a product by its business product code.
func (r *ProductsRepository) GetProductByCode(ctx context.Context, productCode int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("product_code = ?", productCode).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ExistsByProductCode reports whether any stored product carries the given
// product code. Pure read, no side effects.
func (r *ProductsRepository) ExistsByProductCode(ctx context.Context, productCode int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("product_code = ?", productCode).
		Count(&count).Error
	return count > 0, err
}

// UpdateProduct persists the full merged record keyed by its surrogate ID.
// Select forces zero values (empty strings, zero quantity) to be written,
// so the merge decided upstream is stored verbatim.
func (r *ProductsRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("product_code", "name", "category", "price", "quantity", "sku", "description", "image", "updated_at").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.invalidateProductCache(ctx, product.ID)
	return nil
}

// DeleteProduct removes a product by its surrogate ID. Returns false when
// no record existed, which callers treat as an idempotent no-op.
func (r *ProductsRepository) DeleteProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		return false, result.Error
	}

	r.invalidateProductCache(ctx, productID)
	return result.RowsAffected > 0, nil
}

// ListProducts retrieves products with filters and pagination.
func (r *ProductsRepository) ListProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(req.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", term, term)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := req.SortBy
	switch sortBy {
	case "name", "price", "quantity", "product_code", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.EqualFold(req.SortOrder, "ASC") {
		sortOrder = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
