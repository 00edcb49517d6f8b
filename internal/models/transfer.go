package models

// TransferFormat represents the file format for catalog import/export
type TransferFormat string

const (
	TransferFormatCSV  TransferFormat = "csv"
	TransferFormatXLSX TransferFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	TotalRows    int              `json:"totalRows"`
	CreatedCount int              `json:"createdCount"`
	FailedCount  int              `json:"failedCount"`
	SkippedCount int              `json:"skippedCount"`
	Errors       []ImportRowError `json:"errors,omitempty"`
	CreatedIDs   []string         `json:"createdIds,omitempty"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "productCode", Description: "Product code (barcode), unique", Required: true, Type: "number", Example: "4006381333931"},
		{Name: "name", Description: "Product name (max 100 chars)", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "category", Description: "Product category", Required: true, Type: "string", Example: "Apparel"},
		{Name: "price", Description: "Unit price", Required: true, Type: "number", Example: "29.99"},
		{Name: "quantity", Description: "Stock quantity", Required: false, Type: "number", Example: "120"},
		{Name: "sku", Description: "Stock keeping unit (max 50 chars)", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
	}
}
