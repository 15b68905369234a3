package domain

// Filas que devuelven las consultas de agregación del repositorio.
// Todas suman cantidad y monto sobre sales_records.

type MonthlyTotal struct {
	MonthKey      string  `json:"month_key"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

type YearlyTotal struct {
	Year          int     `json:"year"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

type BranchTotal struct {
	Branch        string  `json:"branch"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

type ProductTotal struct {
	ProductCode   string  `json:"product_code"`
	Description   string  `json:"description"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

type ProviderTotal struct {
	Provider      string  `json:"provider"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

// MonthSummaryRow es el detalle producto+sucursal de un mes.
type MonthSummaryRow struct {
	ProductCode   string  `json:"product_code"`
	Description   string  `json:"description"`
	Branch        string  `json:"branch"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

// ProductHistoryRow es la serie mensual de un producto por sucursal.
type ProductHistoryRow struct {
	MonthKey      string  `json:"month_key"`
	Branch        string  `json:"branch"`
	TotalQuantity float64 `json:"total_quantity"`
}

// ProductRef identifica un producto por código y/o descripción.
type ProductRef struct {
	ProductCode string `json:"product_code"`
	Description string `json:"description"`
}

// MonthRef es un mes disponible para reportes, con las fechas del
// período que lo respalda.
type MonthRef struct {
	MonthKey  string  `json:"month_key"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}
