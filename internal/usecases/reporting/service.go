package reporting

import (
	"math"
	"sort"
	"strings"

	"github.com/elcacique/ventas-core/infrastructure/repository"
	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/elcacique/ventas-core/pkg/utils"
)

type Reporter interface {
	CompareYoY(monthKey string) ([]*domain.BranchComparison, error)
	ProviderYearlySummary(year int, metric Metric) ([]*domain.ProviderShare, error)
	MonthlyTrend(provider string, year int) ([]*domain.TrendPoint, error)
	YearlyCAGR(provider, searchText string) (float64, bool, error)
}

type Service struct {
	aggregateRepo repository.AggregateRepository
}

func NewService(aggregateRepo repository.AggregateRepository) Reporter {
	return &Service{
		aggregateRepo: aggregateRepo,
	}
}

// CompareYoY compara cada sucursal del mes contra el mismo mes del año
// anterior, ordenado por crecimiento. Las sucursales que solo aparecen
// en el año anterior entran con venta actual cero.
func (s *Service) CompareYoY(monthKey string) ([]*domain.BranchComparison, error) {
	prevKey, err := PrevYearKey(monthKey)
	if err != nil {
		return nil, err
	}

	current, err := s.aggregateRepo.MonthlyBranchTotals(monthKey)
	if err != nil {
		return nil, err
	}
	previous, err := s.aggregateRepo.MonthlyBranchTotals(prevKey)
	if err != nil {
		return nil, err
	}

	prevByBranch := make(map[string]*domain.BranchTotal, len(previous))
	for _, total := range previous {
		prevByBranch[total.Branch] = total
	}

	comparisons := make([]*domain.BranchComparison, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, total := range current {
		prevAmount := 0.0
		if prev, ok := prevByBranch[total.Branch]; ok {
			prevAmount = prev.TotalAmount
		}
		seen[total.Branch] = true

		comparisons = append(comparisons, &domain.BranchComparison{
			Branch:          total.Branch,
			CurrentQuantity: total.TotalQuantity,
			CurrentAmount:   total.TotalAmount,
			PreviousAmount:  prevAmount,
			AmountDelta:     ComputeDelta(prevAmount, total.TotalAmount),
		})
	}

	// Sucursales que vendieron el año pasado y este mes no.
	for _, total := range previous {
		if seen[total.Branch] {
			continue
		}
		comparisons = append(comparisons, &domain.BranchComparison{
			Branch:         total.Branch,
			PreviousAmount: total.TotalAmount,
			AmountDelta:    ComputeDelta(total.TotalAmount, 0),
		})
	}

	RankByGrowth(comparisons)
	return comparisons, nil
}

// ProviderYearlySummary compara cada proveedor del año contra el año
// anterior: participación en el total del año, ranking por crecimiento
// y ranking de volumen según la métrica elegida. Los proveedores que
// aparecen este año van primeros en el ranking de crecimiento.
func (s *Service) ProviderYearlySummary(year int, metric Metric) ([]*domain.ProviderShare, error) {
	current, err := s.aggregateRepo.ProviderYearlyTotals(year)
	if err != nil {
		return nil, err
	}
	previous, err := s.aggregateRepo.ProviderYearlyTotals(year - 1)
	if err != nil {
		return nil, err
	}

	prevByProvider := make(map[string]float64, len(previous))
	for _, total := range previous {
		prevByProvider[total.Provider] = total.TotalAmount
	}

	grandTotal := 0.0
	for _, total := range current {
		grandTotal += total.TotalAmount
	}

	shares := make([]*domain.ProviderShare, 0, len(current))
	for _, total := range current {
		share := 0.0
		if math.Abs(grandTotal) > zeroTolerance {
			share = utils.RoundWithTwoDecimalPlace(total.TotalAmount / grandTotal * 100)
		}
		prevAmount := prevByProvider[total.Provider]
		shares = append(shares, &domain.ProviderShare{
			Provider:       total.Provider,
			TotalQuantity:  total.TotalQuantity,
			TotalAmount:    total.TotalAmount,
			PreviousAmount: prevAmount,
			SharePercent:   share,
			Delta:          ComputeDelta(prevAmount, total.TotalAmount),
		})
	}

	// Ranking de volumen según la métrica pedida.
	sort.SliceStable(shares, func(i, j int) bool {
		vi := metricValue(shares[i].TotalQuantity, shares[i].TotalAmount, metric)
		vj := metricValue(shares[j].TotalQuantity, shares[j].TotalAmount, metric)
		if vi != vj {
			return vi > vj
		}
		return strings.ToLower(shares[i].Provider) < strings.ToLower(shares[j].Provider)
	})
	for idx, share := range shares {
		share.VolumeRank = idx + 1
	}

	sort.SliceStable(shares, func(i, j int) bool {
		si := GrowthScore(shares[i].PreviousAmount, shares[i].TotalAmount)
		sj := GrowthScore(shares[j].PreviousAmount, shares[j].TotalAmount)
		if si != sj {
			return si > sj
		}
		return strings.ToLower(shares[i].Provider) < strings.ToLower(shares[j].Provider)
	})
	for idx, share := range shares {
		share.Rank = idx + 1
	}

	return shares, nil
}

// MonthlyTrend devuelve la serie mensual del año con la variación
// contra el mes anterior de la misma serie. El primer mes no tiene
// delta.
func (s *Service) MonthlyTrend(provider string, year int) ([]*domain.TrendPoint, error) {
	totals, err := s.aggregateRepo.ProviderMonthlyTotals(provider, year)
	if err != nil {
		return nil, err
	}

	points := make([]*domain.TrendPoint, 0, len(totals))
	for idx, total := range totals {
		point := &domain.TrendPoint{
			MonthKey:    total.MonthKey,
			TotalAmount: total.TotalAmount,
		}
		if idx > 0 {
			delta := ComputeDelta(totals[idx-1].TotalAmount, total.TotalAmount)
			point.Delta = &delta
		}
		points = append(points, point)
	}

	return points, nil
}

// YearlyCAGR calcula la tasa compuesta sobre los totales anuales del
// proveedor (y texto de búsqueda opcional). El bool indica si la serie
// alcanza para calcularla.
func (s *Service) YearlyCAGR(provider, searchText string) (float64, bool, error) {
	totals, err := s.aggregateRepo.YearlyTotals(provider, searchText)
	if err != nil {
		return 0, false, err
	}

	series := make([]float64, 0, len(totals))
	for _, total := range totals {
		series = append(series, total.TotalAmount)
	}

	rate, ok := CAGR(series)
	return rate, ok, nil
}
