package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"catalog-service/internal/config"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
)

// PagesHandler renders the server-side HTML views for the catalog. The
// forms post back to the same handler and redirect to the list on success.
type PagesHandler struct {
	service ProductService
	cfg     *config.Config
	logger  *logrus.Logger
}

func NewPagesHandler(service ProductService, cfg *config.Config, logger *logrus.Logger) *PagesHandler {
	return &PagesHandler{service: service, cfg: cfg, logger: logger}
}

// ListPage renders the product list.
func (h *PagesHandler) ListPage(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	req := &models.ListProductsRequest{
		Category:  c.Query("category"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page,
		Limit:     h.cfg.DefaultPageSize,
	}

	products, total, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load product list page")
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Message": "Failed to load products",
		})
		return
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	c.HTML(http.StatusOK, "products_list.html", gin.H{
		"Products":    products,
		"Total":       total,
		"Page":        page,
		"TotalPages":  totalPages,
		"HasNext":     page < totalPages,
		"HasPrevious": page > 1,
		"Search":      req.Search,
		"Category":    req.Category,
	})
}

// DetailPage renders a single product.
func (h *PagesHandler) DetailPage(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "product_detail.html", gin.H{"Product": product})
}

// NewPage renders the empty create form.
func (h *PagesHandler) NewPage(c *gin.Context) {
	c.HTML(http.StatusOK, "product_form.html", gin.H{
		"Title":  "Add Product",
		"Action": "/products",
	})
}

// CreateSubmit handles the create form post.
func (h *PagesHandler) CreateSubmit(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "product_form.html", gin.H{
			"Title":  "Add Product",
			"Action": "/products",
			"Error":  err.Error(),
			"Form":   req,
		})
		return
	}

	image, imgErr := h.readImageFromForm(c)
	if imgErr != "" {
		c.HTML(http.StatusBadRequest, "product_form.html", gin.H{
			"Title":  "Add Product",
			"Action": "/products",
			"Error":  imgErr,
			"Form":   req,
		})
		return
	}

	_, err := h.service.Create(c.Request.Context(), services.CreateProductInput{
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
		status := http.StatusInternalServerError
		message := "Failed to save product"
		if err == services.ErrDuplicateProductCode {
			status = http.StatusConflict
			message = "A product with this product code already exists"
		}
		c.HTML(status, "product_form.html", gin.H{
			"Title":  "Add Product",
			"Action": "/products",
			"Error":  message,
			"Form":   req,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/products")
}

// EditPage renders the edit form pre-filled with the stored record.
func (h *PagesHandler) EditPage(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "product_form.html", gin.H{
		"Title":   "Edit Product",
		"Action":  "/products/" + product.ID.String() + "/edit",
		"Product": product,
	})
}

// EditSubmit handles the edit form post. Fields left blank keep their
// stored values.
func (h *PagesHandler) EditSubmit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "Product not found"})
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Message": err.Error()})
		return
	}

	image, imgErr := h.readImageFromForm(c)
	if imgErr != "" {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Message": imgErr})
		return
	}

	_, err = h.service.Edit(c.Request.Context(), productID, services.EditProductInput{
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
		switch err {
		case services.ErrProductNotFound:
			c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "Product not found"})
		case services.ErrDuplicateProductCode:
			product, _ := h.service.Get(c.Request.Context(), productID)
			c.HTML(http.StatusConflict, "product_form.html", gin.H{
				"Title":   "Edit Product",
				"Action":  "/products/" + productID.String() + "/edit",
				"Product": product,
				"Error":   "A product with this product code already exists",
			})
		default:
			h.logger.WithError(err).Error("Failed to update product")
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "Failed to save product"})
		}
		return
	}

	c.Redirect(http.StatusSeeOther, "/products/"+productID.String())
}

// DeletePage renders the delete confirmation.
func (h *PagesHandler) DeletePage(c *gin.Context) {
	product, ok := h.loadProduct(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "product_delete.html", gin.H{"Product": product})
}

// DeleteSubmit removes the product and returns to the list. A missing
// record still redirects, deletion is idempotent.
func (h *PagesHandler) DeleteSubmit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "Product not found"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.logger.WithError(err).Error("Failed to delete product")
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "Failed to delete product"})
		return
	}

	c.Redirect(http.StatusSeeOther, "/products")
}

func (h *PagesHandler) loadProduct(c *gin.Context) (*models.Product, bool) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "Product not found"})
		return nil, false
	}

	product, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		if err == services.ErrProductNotFound {
			c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "Product not found"})
		} else {
			h.logger.WithError(err).Error("Failed to load product page")
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "Failed to load product"})
		}
		return nil, false
	}
	return product, true
}

// readImageFromForm reads the optional image upload from an HTML form.
// Returns nil when no file was chosen so the stored image is kept.
func (h *PagesHandler) readImageFromForm(c *gin.Context) ([]byte, string) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, ""
	}
	if fileHeader.Size == 0 {
		return nil, ""
	}
	if fileHeader.Size > h.cfg.MaxImageSizeBytes {
		return nil, "Image exceeds the maximum allowed size"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "Failed to read image upload"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "Failed to read image upload"
	}
	return data, ""
}
