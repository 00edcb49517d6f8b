package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
)

// ProductService is the service surface the HTTP handlers depend on.
type ProductService interface {
	Create(ctx context.Context, input services.CreateProductInput) (*models.Product, error)
	Edit(ctx context.Context, productID uuid.UUID, input services.EditProductInput) (*models.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetByCode(ctx context.Context, productCode int64) (*models.Product, error)
	List(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error)
}

type ProductsHandler struct {
	service         ProductService
	cfg             *config.Config
	eventsPublisher *events.Publisher
}

func NewProductsHandler(service ProductService, cfg *config.Config, eventsPublisher *events.Publisher) *ProductsHandler {
	return &ProductsHandler{
		service:         service,
		cfg:             cfg,
		eventsPublisher: eventsPublisher,
	}
}

// readImageFile extracts an uploaded image from a multipart request. The
// return distinguishes "no file in the request" (nil bytes) from a
// present-but-empty upload (empty non-nil slice), which clears the blob.
func (h *ProductsHandler) readImageFile(c *gin.Context) ([]byte, *models.Error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, &models.Error{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid image upload",
			Field:   "image",
		}
	}

	if fileHeader.Size > h.cfg.MaxImageSizeBytes {
		return nil, &models.Error{
			Code:    "VALIDATION_ERROR",
			Message: "Image exceeds the maximum allowed size",
			Field:   "image",
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, &models.Error{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to read image upload",
			Field:   "image",
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &models.Error{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to read image upload",
			Field:   "image",
		}
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (h *ProductsHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicateProductCode):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_PRODUCT_CODE",
				Message: "A product with this product code already exists",
				Field:   "productCode",
			},
		})
	case errors.Is(err, services.ErrProductNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PERSISTENCE_ERROR",
				Message: "Failed to persist product",
			},
		})
	}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// CreateProduct creates a new product
// @Summary Create a product
// @Tags products
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} models.ProductResponse
// @Router /api/v1/products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	var image []byte

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
		data, imgErr := h.readImageFile(c)
		if imgErr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: *imgErr})
			return
		}
		image = data
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
	}

	product, err := h.service.Create(c.Request.Context(), services.CreateProductInput{
		ProductCode: req.ProductCode,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		SKU:         req.SKU,
		Description: req.Description,
		Image:       image,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		_ = h.eventsPublisher.PublishProductCreated(c.Request.Context(), product)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product created successfully"),
	})
}

// GetProducts retrieves products list with filtering and pagination
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductListResponse
// @Router /api/v1/products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.cfg.DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.cfg.MaxPageSize {
		limit = h.cfg.DefaultPageSize
	}

	req := &models.ListProductsRequest{
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page,
		Limit:     limit,
	}

	products, total, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProduct retrieves a single product by ID
// @Summary Get a product
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductResponse
// @Router /api/v1/products/{id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	product, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProductByCode retrieves a single product by its business product code.
// @Summary Get a product by product code
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductResponse
// @Router /api/v1/products/code/{code} [get]
func (h *ProductsHandler) GetProductByCode(c *gin.Context) {
	code, err := strconv.ParseInt(c.Param("code"), 10, 64)
	if err != nil || code <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Product code must be a positive integer",
				Field:   "code",
			},
		})
		return
	}

	product, err := h.service.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// UpdateProduct applies a partial update to an existing product. Absent
// fields keep their stored values.
// @Summary Update a product
// @Tags products
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} models.ProductResponse
// @Router /api/v1/products/{id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	var req models.UpdateProductRequest
	var image []byte

	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
		data, imgErr := h.readImageFile(c)
		if imgErr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: *imgErr})
			return
		}
		image = data
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "VALIDATION_ERROR",
					Message: err.Error(),
				},
			})
			return
		}
	}

	oldProduct, _ := h.service.Get(c.Request.Context(), productID)

	product, err := h.service.Edit(c.Request.Context(), productID, services.EditProductInput{
		ProductCode: req.ProductCode,
		Name:        req.Name,
		Category:    req.Category,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Image:       image,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		_ = h.eventsPublisher.PublishProductUpdated(c.Request.Context(), product, oldProduct, changedFields(oldProduct, product))
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product updated successfully"),
	})
}

// DeleteProduct removes a product. Deleting an unknown ID succeeds.
// @Summary Delete a product
// @Tags products
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Router /api/v1/products/{id} [delete]
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		_ = h.eventsPublisher.PublishProductDeleted(c.Request.Context(), productID)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Product deleted successfully"),
	})
}

// GetProductImage serves the stored image bytes for a product.
// @Summary Get a product image
// @Tags products
// @Produce png,jpeg
// @Success 200
// @Router /api/v1/products/{id}/image [get]
func (h *ProductsHandler) GetProductImage(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	product, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	if !product.HasImage() {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product has no image",
			},
		})
		return
	}

	contentType := http.DetectContentType(product.Image)
	c.Data(http.StatusOK, contentType, product.Image)
}

// changedFields lists the field names whose values differ between the old
// and new records, for the audit event.
func changedFields(old, updated *models.Product) []string {
	if old == nil || updated == nil {
		return nil
	}
	var fields []string
	if old.ProductCode != updated.ProductCode {
		fields = append(fields, "productCode")
	}
	if old.Name != updated.Name {
		fields = append(fields, "name")
	}
	if old.Category != updated.Category {
		fields = append(fields, "category")
	}
	if old.Price != updated.Price {
		fields = append(fields, "price")
	}
	if old.Quantity != updated.Quantity {
		fields = append(fields, "quantity")
	}
	if old.SKU != updated.SKU {
		fields = append(fields, "sku")
	}
	if derefOrEmpty(old.Description) != derefOrEmpty(updated.Description) {
		fields = append(fields, "description")
	}
	if len(old.Image) != len(updated.Image) {
		fields = append(fields, "image")
	}
	return fields
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPtr(s string) *string {
	return &s
}
