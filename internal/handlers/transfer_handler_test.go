package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
)

func setupTransferRouter(service ProductService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))
	handler := NewTransferHandler(service, logger)

	r := gin.New()
	r.GET("/api/v1/products/export", handler.ExportProducts)
	r.GET("/api/v1/products/import/template", handler.GetImportTemplate)
	r.POST("/api/v1/products/import", handler.ImportProducts)
	return r
}

func uploadCSV(t *testing.T, content string) (*http.Request, error) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "products.csv")
	if err != nil {
		return nil, err
	}
	part.Write([]byte(content))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func TestImportProducts_CSVWithDuplicateRow(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	created := &models.Product{ID: uuid.New(), ProductCode: 100, Name: "Good", Category: "Misc", SKU: "G-1"}
	mockService.On("Create", mock.Anything, mock.MatchedBy(func(input services.CreateProductInput) bool {
		return input.ProductCode == 100
	})).Return(created, nil)
	mockService.On("Create", mock.Anything, mock.MatchedBy(func(input services.CreateProductInput) bool {
		return input.ProductCode == 200
	})).Return(nil, services.ErrDuplicateProductCode)

	csvContent := "productCode,name,category,price,quantity,sku,description\n" +
		"100,Good,Misc,9.99,5,G-1,\n" +
		"200,Taken,Misc,5.00,1,T-1,\n"

	req, err := uploadCSV(t, csvContent)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.ImportResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "DUPLICATE_PRODUCT_CODE", result.Errors[0].Code)
	mockService.AssertExpectations(t)
}

func TestImportProducts_InvalidRowsReported(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	csvContent := "productCode,name,category,price,quantity,sku,description\n" +
		"abc,Bad Code,Misc,9.99,5,B-1,\n" +
		"300,,Misc,9.99,5,B-2,\n"

	req, err := uploadCSV(t, csvContent)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.ImportResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Equal(t, "productCode", result.Errors[0].Column)
	assert.Equal(t, "name", result.Errors[1].Column)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportProducts_MissingFile(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportProducts_CSV(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	desc := "Soft"
	products := []models.Product{
		{ID: uuid.New(), ProductCode: 100, Name: "Good", Category: "Misc", Price: 9.99, Quantity: 5, SKU: "G-1", Description: &desc},
	}
	mockService.On("List", mock.Anything, mock.AnythingOfType("*models.ListProductsRequest")).
		Return(products, int64(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/export?format=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "productCode,name,category,price,quantity,sku,description")
	assert.Contains(t, w.Body.String(), "100,Good,Misc,9.99,5,G-1,Soft")
	mockService.AssertExpectations(t)
}

func TestExportProducts_UnknownFormat(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/export?format=pdf", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetImportTemplate_CSVHeadersOnly(t *testing.T) {
	mockService := new(MockProductService)
	router := setupTransferRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/import/template?format=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "productCode,name,category,price,quantity,sku,description\n", w.Body.String())
}
