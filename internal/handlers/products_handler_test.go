package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"catalog-service/internal/config"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
)

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, input services.CreateProductInput) (*models.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Edit(ctx context.Context, productID uuid.UUID, input services.EditProductInput) (*models.Product, error) {
	args := m.Called(ctx, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) GetByCode(ctx context.Context, productCode int64) (*models.Product, error) {
	args := m.Called(ctx, productCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func setupProductsRouter(service ProductService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		DefaultPageSize:   20,
		MaxPageSize:       100,
		MaxImageSizeBytes: 10 << 20,
	}
	handler := NewProductsHandler(service, cfg, nil)

	r := gin.New()
	products := r.Group("/api/v1/products")
	{
		products.GET("", handler.GetProducts)
		products.POST("", handler.CreateProduct)
		products.GET("/:id", handler.GetProduct)
		products.PUT("/:id", handler.UpdateProduct)
		products.DELETE("/:id", handler.DeleteProduct)
		products.GET("/:id/image", handler.GetProductImage)
	}
	return r
}

func TestCreateProduct_Success(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)

	created := &models.Product{
		ID:          uuid.New(),
		ProductCode: 4006381333931,
		Name:        "Blue Cotton T-Shirt",
		Category:    "Apparel",
		Price:       29.99,
		Quantity:    120,
		SKU:         "TSH-BLU-001",
	}
	mockService.On("Create", mock.Anything, mock.AnythingOfType("services.CreateProductInput")).Return(created, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"productCode": 4006381333931,
		"name":        "Blue Cotton T-Shirt",
		"category":    "Apparel",
		"price":       29.99,
		"quantity":    120,
		"sku":         "TSH-BLU-001",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.ProductResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(4006381333931), resp.Data.ProductCode)
	mockService.AssertExpectations(t)
}

func TestCreateProduct_DuplicateCode(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)

	mockService.On("Create", mock.Anything, mock.AnythingOfType("services.CreateProductInput")).
		Return(nil, services.ErrDuplicateProductCode)

	body, _ := json.Marshal(map[string]interface{}{
		"productCode": 4006381333931,
		"name":        "Blue Cotton T-Shirt",
		"category":    "Apparel",
		"sku":         "TSH-BLU-001",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DUPLICATE_PRODUCT_CODE", resp.Error.Code)
	assert.Equal(t, "productCode", resp.Error.Field)
	mockService.AssertExpectations(t)
}

func TestCreateProduct_ValidationError(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)

	// Missing required fields
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateProduct_PartialPayloadPassesPointerSemantics(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	existing := &models.Product{ID: id, ProductCode: 1, Name: "Old", Category: "Apparel", SKU: "S"}
	updated := &models.Product{ID: id, ProductCode: 1, Name: "", Category: "Apparel", SKU: "S", Quantity: 7}

	mockService.On("Get", mock.Anything, id).Return(existing, nil)
	mockService.On("Edit", mock.Anything, id, mock.MatchedBy(func(input services.EditProductInput) bool {
		// name present and empty, category absent, quantity set
		return input.Name != nil && *input.Name == "" &&
			input.Category == nil &&
			input.Quantity == 7 &&
			input.Image == nil
	})).Return(updated, nil)

	body := []byte(`{"name":"","quantity":7}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+id.String(), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	mockService.On("Get", mock.Anything, id).Return(nil, services.ErrProductNotFound)
	mockService.On("Edit", mock.Anything, id, mock.AnythingOfType("services.EditProductInput")).
		Return(nil, services.ErrProductNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+id.String(), bytes.NewReader([]byte(`{"quantity":1}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestUpdateProduct_InvalidID(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/not-a-uuid", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
}

func TestDeleteProduct_UnknownIDStillSucceeds(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	mockService.On("Delete", mock.Anything, id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+id.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.SuccessResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockService.AssertExpectations(t)
}

func TestGetProduct_NotFound(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	mockService.On("Get", mock.Anything, id).Return(nil, services.ErrProductNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProductImage_ServesBytes(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	// Minimal PNG header so content type sniffing resolves to image/png
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	mockService.On("Get", mock.Anything, id).Return(&models.Product{ID: id, Name: "P", Image: png}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id.String()+"/image", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Type"), "image/png")
}

func TestGetProductImage_NoImage(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)
	id := uuid.New()

	mockService.On("Get", mock.Anything, id).Return(&models.Product{ID: id, Name: "P"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id.String()+"/image", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProducts_Pagination(t *testing.T) {
	mockService := new(MockProductService)
	router := setupProductsRouter(mockService)

	products := []models.Product{{ID: uuid.New(), Name: "A"}, {ID: uuid.New(), Name: "B"}}
	mockService.On("List", mock.Anything, mock.MatchedBy(func(req *models.ListProductsRequest) bool {
		return req.Page == 2 && req.Limit == 2
	})).Return(products, int64(5), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ProductListResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrevious)
	mockService.AssertExpectations(t)
}
