package reporting

import (
	"math"
	"testing"

	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDelta(t *testing.T) {
	tests := []struct {
		name     string
		previous float64
		current  float64
		expected domain.Delta
	}{
		{
			name:     "crecimiento",
			previous: 100,
			current:  120,
			expected: domain.Delta{Absolute: 20, Percent: 20, Trend: domain.TrendUp},
		},
		{
			name:     "caída",
			previous: 200,
			current:  150,
			expected: domain.Delta{Absolute: -50, Percent: -25, Trend: domain.TrendDown},
		},
		{
			name:     "ambos cero",
			previous: 0,
			current:  0,
			expected: domain.Delta{Trend: domain.TrendFlat},
		},
		{
			name:     "aparición",
			previous: 0,
			current:  50,
			expected: domain.Delta{Absolute: 50, Infinite: true, Trend: domain.TrendUp},
		},
		{
			name:     "sin cambio",
			previous: 100,
			current:  100,
			expected: domain.Delta{Trend: domain.TrendFlat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDelta(tt.previous, tt.current)
			assert.InDelta(t, tt.expected.Absolute, got.Absolute, 1e-9)
			assert.InDelta(t, tt.expected.Percent, got.Percent, 1e-9)
			assert.Equal(t, tt.expected.Infinite, got.Infinite)
			assert.Equal(t, tt.expected.Trend, got.Trend)
		})
	}
}

func TestGrowthScore(t *testing.T) {
	assert.InDelta(t, 0.2, GrowthScore(100, 120), 1e-9)
	assert.InDelta(t, -0.5, GrowthScore(200, 100), 1e-9)
	assert.True(t, math.IsInf(GrowthScore(0, 10), 1))
	assert.True(t, math.IsInf(GrowthScore(0, -10), -1))
	// Serie muerta: puntúa -Inf para quedar debajo de cualquier caída.
	assert.True(t, math.IsInf(GrowthScore(0, 0), -1))
}

func TestCAGR(t *testing.T) {
	rate, ok := CAGR([]float64{100, 121})
	require.True(t, ok)
	assert.InDelta(t, 0.21, rate, 1e-9)

	rate, ok = CAGR([]float64{100, 110, 121})
	require.True(t, ok)
	assert.InDelta(t, 0.1, rate, 1e-9)

	_, ok = CAGR([]float64{100})
	assert.False(t, ok)

	_, ok = CAGR([]float64{0, 100})
	assert.False(t, ok)
}

func TestPrevKeys(t *testing.T) {
	prev, err := PrevYearKey("2025-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", prev)

	prev, err = PrevMonthKey("2025-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-12", prev)

	_, err = PrevYearKey("marzo")
	assert.Error(t, err)
}

func TestRankTotals(t *testing.T) {
	totals := []*domain.BranchTotal{
		{Branch: "norte", TotalQuantity: 40, TotalAmount: 100},
		{Branch: "Centro", TotalQuantity: 10, TotalAmount: 300},
		{Branch: "este", TotalQuantity: 25, TotalAmount: 100},
	}

	RankTotals(totals, MetricAmount)

	assert.Equal(t, "Centro", totals[0].Branch)
	// Empate por monto: resuelve alfabético sin mayúsculas.
	assert.Equal(t, "este", totals[1].Branch)
	assert.Equal(t, "norte", totals[2].Branch)

	RankTotals(totals, MetricQuantity)

	// Por unidades el orden se invierte.
	assert.Equal(t, "norte", totals[0].Branch)
	assert.Equal(t, "este", totals[1].Branch)
	assert.Equal(t, "Centro", totals[2].Branch)
}

func TestRankByGrowth(t *testing.T) {
	comparisons := []*domain.BranchComparison{
		{Branch: "Estable", PreviousAmount: 100, CurrentAmount: 110},
		{Branch: "Nueva", PreviousAmount: 0, CurrentAmount: 50},
		{Branch: "Cerrada", PreviousAmount: 80, CurrentAmount: 0},
	}

	RankByGrowth(comparisons)

	// Las apariciones primero, las desapariciones al final.
	assert.Equal(t, "Nueva", comparisons[0].Branch)
	assert.Equal(t, "Estable", comparisons[1].Branch)
	assert.Equal(t, "Cerrada", comparisons[2].Branch)
}

func TestRankByGrowthDormantLast(t *testing.T) {
	comparisons := []*domain.BranchComparison{
		{Branch: "Dormida", PreviousAmount: 0, CurrentAmount: 0},
		{Branch: "Cayendo", PreviousAmount: 100, CurrentAmount: 50},
	}

	RankByGrowth(comparisons)

	// Una sucursal sin ventas en ningún año queda detrás de una que
	// todavía vende, aunque esté cayendo.
	assert.Equal(t, "Cayendo", comparisons[0].Branch)
	assert.Equal(t, "Dormida", comparisons[1].Branch)
}
