package domain

import "time"

// SalesRecord es una línea de venta de un producto en una sucursal,
// dentro del período importado desde un Excel.
type SalesRecord struct {
	Branch          string   `json:"branch"`
	ProductCode     string   `json:"product_code"`
	Description     string   `json:"description"`
	Quantity        float64  `json:"quantity"`
	Amount          float64  `json:"amount"`
	SharePercentage *float64 `json:"share_percentage"`
}

// SalesBatch es el resultado de importar un archivo. El nombre del
// archivo actúa como clave natural del período: reimportar el mismo
// archivo reemplaza sus registros.
type SalesBatch struct {
	SourceFile  string         `json:"source_file"`
	Provider    *string        `json:"provider"`
	Brand       *string        `json:"brand"`
	PlanName    *string        `json:"plan_name"`
	PeriodStart *time.Time     `json:"period_start"`
	PeriodEnd   *time.Time     `json:"period_end"`
	Records     []*SalesRecord `json:"records"`
}
