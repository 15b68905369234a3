package reporting

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/elcacique/ventas-core/pkg/utils"
)

// zeroTolerance separa el "no hubo ventas" del ruido de punto flotante
// que dejan las sumas de montos.
const zeroTolerance = 1e-6

// ComputeDelta calcula la variación absoluta y porcentual entre dos
// valores. Cuando el valor previo es cero y el actual no, el porcentaje
// se marca como infinito en vez de dividir por cero; si ambos son cero
// la variación es 0%.
func ComputeDelta(previous, current float64) domain.Delta {
	delta := domain.Delta{
		Absolute: current - previous,
		Trend:    trendOf(current - previous),
	}

	if math.Abs(previous) <= zeroTolerance {
		if math.Abs(current) <= zeroTolerance {
			return delta
		}
		delta.Infinite = true
		return delta
	}

	delta.Percent = utils.RoundWithTwoDecimalPlace((current - previous) / math.Abs(previous) * 100)
	return delta
}

func trendOf(diff float64) domain.Trend {
	switch {
	case diff > zeroTolerance:
		return domain.TrendUp
	case diff < -zeroTolerance:
		return domain.TrendDown
	default:
		return domain.TrendFlat
	}
}

// GrowthScore es la métrica de orden para rankings de crecimiento:
// la variación relativa cruda, con +Inf para apariciones (antes cero,
// ahora ventas) y -Inf para desapariciones. Una serie muerta (cero en
// ambos lados) también puntúa -Inf: queda al fondo del ranking, detrás
// de cualquier caída real. Sirve para ordenar, no para mostrar.
func GrowthScore(previous, current float64) float64 {
	if math.Abs(previous) <= zeroTolerance {
		if current > zeroTolerance {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return (current - previous) / math.Abs(previous)
}

// CAGR calcula la tasa compuesta de crecimiento anual de la serie.
// Necesita al menos dos valores y un primer valor positivo; en
// cualquier otro caso devuelve 0 y false.
func CAGR(series []float64) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	first := series[0]
	last := series[len(series)-1]
	if first <= zeroTolerance || last < 0 {
		return 0, false
	}

	periods := float64(len(series) - 1)
	return math.Pow(last/first, 1/periods) - 1, true
}

// Metric elige la medida de los rankings de volumen: unidades o plata.
type Metric string

const (
	MetricAmount   Metric = "amount"
	MetricQuantity Metric = "quantity"
)

func metricValue(quantity, amount float64, metric Metric) float64 {
	if metric == MetricQuantity {
		return quantity
	}
	return amount
}

// RankTotals ordena por la métrica elegida descendente; los empates se
// resuelven por nombre, sin distinguir mayúsculas, para que el orden
// sea estable entre corridas.
func RankTotals(totals []*domain.BranchTotal, metric Metric) {
	sort.SliceStable(totals, func(i, j int) bool {
		vi := metricValue(totals[i].TotalQuantity, totals[i].TotalAmount, metric)
		vj := metricValue(totals[j].TotalQuantity, totals[j].TotalAmount, metric)
		if vi != vj {
			return vi > vj
		}
		return strings.ToLower(totals[i].Branch) < strings.ToLower(totals[j].Branch)
	})
}

// RankByGrowth ordena las comparaciones de mayor a menor crecimiento,
// usando GrowthScore sobre los montos. Las apariciones (+Inf) quedan
// primeras y las desapariciones (-Inf) últimas.
func RankByGrowth(comparisons []*domain.BranchComparison) {
	sort.SliceStable(comparisons, func(i, j int) bool {
		si := GrowthScore(comparisons[i].PreviousAmount, comparisons[i].CurrentAmount)
		sj := GrowthScore(comparisons[j].PreviousAmount, comparisons[j].CurrentAmount)
		if si != sj {
			return si > sj
		}
		return strings.ToLower(comparisons[i].Branch) < strings.ToLower(comparisons[j].Branch)
	})
}

// PrevYearKey devuelve la clave del mismo mes del año anterior:
// "2024-03" para "2025-03". Falla si la clave no tiene forma YYYY-MM.
func PrevYearKey(monthKey string) (string, error) {
	when, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return "", fmt.Errorf("clave de mes inválida %q: %w", monthKey, err)
	}
	return when.AddDate(-1, 0, 0).Format("2006-01"), nil
}

// PrevMonthKey devuelve la clave del mes anterior.
func PrevMonthKey(monthKey string) (string, error) {
	when, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return "", fmt.Errorf("clave de mes inválida %q: %w", monthKey, err)
	}
	return when.AddDate(0, -1, 0).Format("2006-01"), nil
}
