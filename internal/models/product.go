package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry. The surrogate ID is assigned by the
// store on creation and never changes; ProductCode is the user-facing
// product code (typically a barcode) and is unique among nonzero values.
// A zero ProductCode means "no code asserted" and is exempt from the
// uniqueness check.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductCode int64     `json:"productCode" gorm:"index:idx_products_code"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Category    string    `json:"category" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0"`
	SKU         string    `json:"sku" gorm:"not null;size:50"`
	Description *string   `json:"description,omitempty"`
	Image       []byte    `json:"-" gorm:"type:bytea"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasImage reports whether an image blob is stored for the product.
func (p *Product) HasImage() bool {
	return len(p.Image) > 0
}

// CreateProductRequest represents a request to create a new product.
// All fields are taken verbatim on create; there is no partial merge.
type CreateProductRequest struct {
	ProductCode int64   `json:"productCode" form:"productCode" binding:"required,gt=0"`
	Name        string  `json:"name" form:"name" binding:"required,max=100"`
	Category    string  `json:"category" form:"category" binding:"required"`
	Price       float64 `json:"price" form:"price" binding:"gte=0"`
	Quantity    int     `json:"quantity" form:"quantity" binding:"gte=0"`
	SKU         string  `json:"sku" form:"sku" binding:"required,max=50"`
	Description *string `json:"description,omitempty" form:"description"`
}

// UpdateProductRequest represents a partial update. Pointer fields
// distinguish "absent" (keep stored value) from an explicit empty string
// (overwrite). ProductCode, Price and Quantity use zero as the "keep"
// sentinel, mirroring how the form transport carries them: a true zero
// cannot be set through an edit.
type UpdateProductRequest struct {
	ProductCode int64   `json:"productCode" form:"productCode" binding:"gte=0"`
	Name        *string `json:"name,omitempty" form:"name" binding:"omitempty,max=100"`
	Category    *string `json:"category,omitempty" form:"category"`
	Price       float64 `json:"price" form:"price" binding:"gte=0"`
	Quantity    int     `json:"quantity" form:"quantity" binding:"gte=0"`
	SKU         *string `json:"sku,omitempty" form:"sku" binding:"omitempty,max=50"`
	Description *string `json:"description,omitempty" form:"description"`
}

// ListProductsRequest carries list filters and pagination.
type ListProductsRequest struct {
	Category  string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Response types

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
