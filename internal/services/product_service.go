package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

var (
	ErrDuplicateProductCode = errors.New("product with the same product code already exists")
	ErrProductNotFound      = errors.New("product not found")
)

// ProductService implements the product upsert workflow: the duplicate
// product-code check, the partial-merge edit semantics and idempotent
// deletion. It never retries or swallows store failures; those propagate
// to the caller wrapped, and a failed edit leaves the stored record
// untouched.
type ProductService struct {
	repo repository.ProductsRepositoryInterface
}

// NewProductService creates a new ProductService
func NewProductService(repo repository.ProductsRepositoryInterface) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput carries a full product payload. Every field is
// persisted verbatim on create.
type CreateProductInput struct {
	ProductCode int64
	Name        string
	Category    string
	Price       float64
	Quantity    int
	SKU         string
	Description *string
	Image       []byte
}

// EditProductInput carries a partial product payload for an edit.
// Nil pointers mean "keep the stored value"; an explicit empty string
// overwrites. ProductCode, Price and Quantity treat zero as "keep"
// (a known limitation: a true zero is not settable through an edit).
// A nil Image keeps the stored blob; a non-nil one, even empty, replaces it.
type EditProductInput struct {
	ProductCode int64
	Name        *string
	Category    *string
	SKU         *string
	Description *string
	Price       float64
	Quantity    int
	Image       []byte
}

// resolveImage decides the persisted image bytes. A supplied image (even
// zero-length) replaces; otherwise the existing blob passes through.
func resolveImage(newImage, existing []byte) []byte {
	if newImage != nil {
		return newImage
	}
	return existing
}

// Create persists a new product after checking the product code for a
// collision. A zero code asserts no code and skips the check.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.ProductCode != 0 {
		exists, err := s.repo.ExistsByProductCode(ctx, input.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check product code: %w", err)
		}
		if exists {
			return nil, ErrDuplicateProductCode
		}
	}

	product := &models.Product{
		ProductCode: input.ProductCode,
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Quantity:    input.Quantity,
		SKU:         input.SKU,
		Description: input.Description,
		Image:       resolveImage(input.Image, nil),
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Edit merges a partial payload into the stored record and persists the
// result. The update is permitted only when the incoming product code is
// unchanged, unasserted (zero), or not taken by another record.
func (s *ProductService) Edit(ctx context.Context, productID uuid.UUID, input EditProductInput) (*models.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if input.ProductCode != 0 && input.ProductCode != existing.ProductCode {
		exists, err := s.repo.ExistsByProductCode(ctx, input.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check product code: %w", err)
		}
		if exists {
			return nil, ErrDuplicateProductCode
		}
	}

	merged := *existing

	if input.ProductCode != 0 {
		merged.ProductCode = input.ProductCode
	}
	if input.Name != nil {
		merged.Name = *input.Name
	}
	if input.Category != nil {
		merged.Category = *input.Category
	}
	if input.SKU != nil {
		merged.SKU = *input.SKU
	}
	if input.Description != nil {
		merged.Description = input.Description
	}
	if input.Price != 0 {
		merged.Price = input.Price
	}
	if input.Quantity != 0 {
		merged.Quantity = input.Quantity
	}
	merged.Image = resolveImage(input.Image, existing.Image)

	if err := s.repo.UpdateProduct(ctx, &merged); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &merged, nil
}

// Delete removes a product by its surrogate ID. Deleting a missing record
// is a no-op, not an error.
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// Get retrieves a product by its surrogate ID.
func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// GetByCode retrieves a product by its business product code.
func (s *ProductService) GetByCode(ctx context.Context, productCode int64) (*models.Product, error) {
	product, err := s.repo.GetProductByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// List retrieves products with filters and pagination.
func (s *ProductService) List(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	return s.repo.ListProducts(ctx, req)
}
