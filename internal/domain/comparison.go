package domain

// Trend indica la dirección de una variación interanual o mensual.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Delta es la variación entre dos valores: absoluta y porcentual.
// Infinite marca el caso "antes no había nada y ahora sí", donde el
// porcentaje no tiene sentido.
type Delta struct {
	Absolute float64 `json:"absolute"`
	Percent  float64 `json:"percent"`
	Infinite bool    `json:"infinite"`
	Trend    Trend   `json:"trend"`
}

// BranchComparison compara una sucursal contra el mismo mes del año
// anterior.
type BranchComparison struct {
	Branch          string  `json:"branch"`
	CurrentQuantity float64 `json:"current_quantity"`
	CurrentAmount   float64 `json:"current_amount"`
	PreviousAmount  float64 `json:"previous_amount"`
	AmountDelta     Delta   `json:"amount_delta"`
}

// ProviderShare es la posición de un proveedor dentro del año: su
// participación en el total y su variación contra el año anterior.
// Rank ordena por crecimiento; VolumeRank por la métrica de volumen
// elegida (unidades o monto).
type ProviderShare struct {
	Provider       string  `json:"provider"`
	TotalQuantity  float64 `json:"total_quantity"`
	TotalAmount    float64 `json:"total_amount"`
	PreviousAmount float64 `json:"previous_amount"`
	SharePercent   float64 `json:"share_percent"`
	Delta          Delta   `json:"delta"`
	Rank           int     `json:"rank"`
	VolumeRank     int     `json:"volume_rank"`
}

// TrendPoint es un mes de la serie con su variación contra el mes
// anterior.
type TrendPoint struct {
	MonthKey    string  `json:"month_key"`
	TotalAmount float64 `json:"total_amount"`
	Delta       *Delta  `json:"delta,omitempty"`
}
