package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
)

const (
	exportPageSize    = 500
	maxImportFileSize = 10 << 20
	exportSheetName   = "Products"
)

// TransferHandler serves catalog export, import and the import template.
type TransferHandler struct {
	service ProductService
	logger  *logrus.Logger
}

func NewTransferHandler(service ProductService, logger *logrus.Logger) *TransferHandler {
	return &TransferHandler{service: service, logger: logger}
}

func parseTransferFormat(c *gin.Context) (models.TransferFormat, bool) {
	format := models.TransferFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	switch format {
	case models.TransferFormatCSV, models.TransferFormatXLSX:
		return format, true
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "VALIDATION_ERROR",
			Message: "format must be csv or xlsx",
			Field:   "format",
		},
	})
	return "", false
}

// fetchAllProducts pages through the catalog sorted by creation time.
func (h *TransferHandler) fetchAllProducts(c *gin.Context) ([]models.Product, error) {
	var all []models.Product
	page := 1
	for {
		products, total, err := h.service.List(c.Request.Context(), &models.ListProductsRequest{
			SortBy:    "created_at",
			SortOrder: "ASC",
			Page:      page,
			Limit:     exportPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, products...)
		if int64(len(all)) >= total || len(products) == 0 {
			return all, nil
		}
		page++
	}
}

func exportRow(p *models.Product) []string {
	desc := ""
	if p.Description != nil {
		desc = *p.Description
	}
	return []string{
		strconv.FormatInt(p.ProductCode, 10),
		p.Name,
		p.Category,
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		strconv.Itoa(p.Quantity),
		p.SKU,
		desc,
	}
}

// ExportProducts downloads the full catalog as CSV or XLSX.
// @Summary Export products
// @Tags transfer
// @Produce octet-stream
// @Router /api/v1/products/export [get]
func (h *TransferHandler) ExportProducts(c *gin.Context) {
	format, ok := parseTransferFormat(c)
	if !ok {
		return
	}

	products, err := h.fetchAllProducts(c)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products for export")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	filename := fmt.Sprintf("products_%s.%s", time.Now().Format("20060102_150405"), format)
	columns := models.ProductImportColumns()

	if format == models.TransferFormatCSV {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename="+filename)

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = col.Name
		}
		writer.Write(headers)
		for i := range products {
			writer.Write(exportRow(&products[i]))
		}
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cell, col.Name)
		f.SetCellStyle(exportSheetName, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheetName, colName, colName, 20)
	}
	for rowIdx := range products {
		row := exportRow(&products[rowIdx])
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(exportSheetName, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write export file")
	}
}

// GetImportTemplate downloads a header-only import template.
// @Summary Download import template
// @Tags transfer
// @Produce octet-stream
// @Router /api/v1/products/import/template [get]
func (h *TransferHandler) GetImportTemplate(c *gin.Context) {
	format, ok := parseTransferFormat(c)
	if !ok {
		return
	}

	columns := models.ProductImportColumns()

	if format == models.TransferFormatCSV {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

		writer := csv.NewWriter(c.Writer)
		defer writer.Flush()

		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = col.Name
		}
		writer.Write(headers)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(exportSheetName, cell, headerText)
		if col.Required {
			f.SetCellStyle(exportSheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(exportSheetName, cell, cell, headerStyle)
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Columns marked with * are required.")
	f.SetCellValue("Instructions", "A4", "productCode must be unique across the catalog; rows with a code already in use are reported as failed.")
	f.SetCellValue("Instructions", "A6", "Column Definitions:")
	for i, col := range columns {
		row := i + 7
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Example)
	}
	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 25)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write template file")
	}
}

// ImportProducts creates products from an uploaded CSV or XLSX file. Rows
// that fail validation or collide on productCode are reported per row; the
// rest are created.
// @Summary Import products
// @Tags transfer
// @Accept mpfd
// @Produce json
// @Success 200 {object} models.ImportResult
// @Router /api/v1/products/import [post]
func (h *TransferHandler) ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "file is required",
				Field:   "file",
			},
		})
		return
	}
	if fileHeader.Size > maxImportFileSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "file exceeds the maximum allowed size",
				Field:   "file",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "failed to read uploaded file",
				Field:   "file",
			},
		})
		return
	}
	defer file.Close()

	var rows []map[string]string
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		rows, err = parseXLSXRows(file)
	} else {
		rows, err = parseCSVRows(file)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
				Field:   "file",
			},
		})
		return
	}

	result := h.importRows(c, rows)
	c.JSON(http.StatusOK, result)
}

func (h *TransferHandler) importRows(c *gin.Context, rows []map[string]string) *models.ImportResult {
	result := &models.ImportResult{TotalRows: len(rows)}

	for i, row := range rows {
		rowNum := i + 2 // account for the header row

		input, rowErr := buildImportInput(row, rowNum)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			result.FailedCount++
			continue
		}

		product, err := h.service.Create(c.Request.Context(), *input)
		if err != nil {
			code := "PERSISTENCE_ERROR"
			if err == services.ErrDuplicateProductCode {
				code = "DUPLICATE_PRODUCT_CODE"
			}
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     rowNum,
				Column:  "productCode",
				Code:    code,
				Message: err.Error(),
			})
			result.FailedCount++
			continue
		}

		result.CreatedCount++
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())
	}

	result.Success = result.FailedCount == 0
	h.logger.WithFields(logrus.Fields{
		"totalRows": result.TotalRows,
		"created":   result.CreatedCount,
		"failed":    result.FailedCount,
	}).Info("Product import completed")

	return result
}

func buildImportInput(row map[string]string, rowNum int) (*services.CreateProductInput, *models.ImportRowError) {
	rowError := func(column, code, message string) *models.ImportRowError {
		return &models.ImportRowError{Row: rowNum, Column: column, Code: code, Message: message}
	}

	productCode, err := strconv.ParseInt(strings.TrimSpace(row["productCode"]), 10, 64)
	if err != nil || productCode <= 0 {
		return nil, rowError("productCode", "VALIDATION_ERROR", "productCode must be a positive integer")
	}

	name := strings.TrimSpace(row["name"])
	if name == "" || len(name) > 100 {
		return nil, rowError("name", "VALIDATION_ERROR", "name is required and must be at most 100 characters")
	}

	category := strings.TrimSpace(row["category"])
	if category == "" {
		return nil, rowError("category", "VALIDATION_ERROR", "category is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row["price"]), 64)
	if err != nil || price < 0 {
		return nil, rowError("price", "VALIDATION_ERROR", "price must be a non-negative number")
	}

	quantity := 0
	if q := strings.TrimSpace(row["quantity"]); q != "" {
		quantity, err = strconv.Atoi(q)
		if err != nil || quantity < 0 {
			return nil, rowError("quantity", "VALIDATION_ERROR", "quantity must be a non-negative integer")
		}
	}

	sku := strings.TrimSpace(row["sku"])
	if sku == "" || len(sku) > 50 {
		return nil, rowError("sku", "VALIDATION_ERROR", "sku is required and must be at most 50 characters")
	}

	input := &services.CreateProductInput{
		ProductCode: productCode,
		Name:        name,
		Category:    category,
		Price:       price,
		Quantity:    quantity,
		SKU:         sku,
	}
	if desc := strings.TrimSpace(row["description"]); desc != "" {
		input.Description = &desc
	}
	return input, nil
}

// parseCSVRows parses a CSV file into header-keyed rows.
func parseCSVRows(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(headers[i]), " *")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseXLSXRows parses an Excel file into header-keyed rows.
func parseXLSXRows(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, exportSheetName) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(headers[i]), " *")
	}

	rows := make([]map[string]string, 0, len(excelRows)-1)
	for _, record := range excelRows[1:] {
		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
