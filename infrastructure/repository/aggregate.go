package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/internal/domain"
)

// Clave de mes YYYY-MM del período: usa start_date y cae en end_date
// cuando falta. Los períodos sin ninguna fecha quedan fuera de los
// agregados temporales.
const (
	monthKeyExpr = "strftime('%Y-%m', date(COALESCE(sp.start_date, sp.end_date)))"
	yearExpr     = "strftime('%Y', date(COALESCE(sp.start_date, sp.end_date)))"
	periodDate   = "COALESCE(sp.start_date, sp.end_date)"

	recordsJoin = "sales_records sr JOIN sales_periods sp ON sp.id = sr.period_id"

	// Etiqueta para períodos sin proveedor en los resúmenes.
	NoProviderLabel = "Sin proveedor"
)

type AggregateRepository interface {
	ListMonths(provider string) ([]*domain.MonthRef, error)
	ListYears() ([]int, error)
	ListProviders() ([]string, error)
	ListProducts() ([]*domain.ProductRef, error)
	ProviderMonthlyTotals(provider string, year int) ([]*domain.MonthlyTotal, error)
	ProviderYearlyTotals(year int) ([]*domain.ProviderTotal, error)
	YearlyBranchTotals(year int) ([]*domain.BranchTotal, error)
	YearlyTotals(provider, searchText string) ([]*domain.YearlyTotal, error)
	YearlyProductTotals(year int) ([]*domain.ProductTotal, error)
	MonthlyBranchTotals(monthKey string) ([]*domain.BranchTotal, error)
	MonthlyProductTotals(monthKey string) ([]*domain.ProductTotal, error)
	MonthlyProductBranchTotals(monthKey, productCode, description string) ([]*domain.BranchTotal, error)
	MonthlySummary(monthKey, provider string) ([]*domain.MonthSummaryRow, error)
	ProductHistory(productCode, description string) ([]*domain.ProductHistoryRow, error)
}

type aggregateRepository struct {
	conn *sqlite.Connection
}

func NewAggregateRepository(conn *sqlite.Connection) AggregateRepository {
	return &aggregateRepository{
		conn: conn,
	}
}

func (r *aggregateRepository) ListMonths(provider string) ([]*domain.MonthRef, error) {
	builder := squirrel.
		Select(
			"DISTINCT "+monthKeyExpr+" AS month_key",
			"sp.start_date",
			"sp.end_date",
		).
		From(periodsTable + " sp").
		Where(periodDate + " IS NOT NULL")

	if provider != "" {
		builder = builder.Where(squirrel.Eq{"sp.provider": provider})
	}

	query, args, err := builder.
		OrderBy(periodDate + " DESC").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	months := make([]*domain.MonthRef, 0)
	for rows.Next() {
		month := &domain.MonthRef{}
		var start, end sql.NullString
		if err := rows.Scan(&month.MonthKey, &start, &end); err != nil {
			return nil, fmt.Errorf("error al escanear mes: %w", err)
		}
		month.StartDate = nullableString(start)
		month.EndDate = nullableString(end)
		months = append(months, month)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return months, nil
}

func (r *aggregateRepository) ListYears() ([]int, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT CAST(%s AS INTEGER) AS year
		FROM sales_periods sp
		WHERE %s IS NOT NULL
		ORDER BY year DESC
	`, yearExpr, periodDate)

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("error al escanear año: %w", err)
		}
		years = append(years, year)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return years, nil
}

func (r *aggregateRepository) ListProviders() ([]string, error) {
	query := `
		SELECT DISTINCT provider
		FROM sales_periods
		WHERE provider IS NOT NULL AND provider <> ''
		ORDER BY provider COLLATE NOCASE
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	providers := make([]string, 0)
	for rows.Next() {
		var provider string
		if err := rows.Scan(&provider); err != nil {
			return nil, fmt.Errorf("error al escanear proveedor: %w", err)
		}
		providers = append(providers, provider)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return providers, nil
}

func (r *aggregateRepository) ListProducts() ([]*domain.ProductRef, error) {
	query := `
		SELECT DISTINCT
			COALESCE(sr.product_code, '') AS product_code,
			COALESCE(sr.description, '') AS description
		FROM sales_records sr
		ORDER BY description, product_code
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.ProductRef, 0)
	for rows.Next() {
		product := &domain.ProductRef{}
		if err := rows.Scan(&product.ProductCode, &product.Description); err != nil {
			return nil, fmt.Errorf("error al escanear producto: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return products, nil
}

// ProviderMonthlyTotals devuelve la serie mensual de totales,
// opcionalmente filtrada por proveedor y año.
func (r *aggregateRepository) ProviderMonthlyTotals(provider string, year int) ([]*domain.MonthlyTotal, error) {
	builder := squirrel.
		Select(
			monthKeyExpr+" AS month_key",
			"SUM(sr.quantity) AS total_quantity",
			"SUM(sr.amount) AS total_amount",
		).
		From(recordsJoin).
		Where(periodDate + " IS NOT NULL")

	if provider != "" {
		builder = builder.Where(squirrel.Eq{"sp.provider": provider})
	}
	if year > 0 {
		builder = builder.Where(yearExpr+" = ?", fmt.Sprintf("%d", year))
	}

	query, args, err := builder.
		GroupBy("month_key").
		OrderBy("month_key ASC").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	totals := make([]*domain.MonthlyTotal, 0)
	for rows.Next() {
		total := &domain.MonthlyTotal{}
		if err := rows.Scan(&total.MonthKey, &total.TotalQuantity, &total.TotalAmount); err != nil {
			return nil, fmt.Errorf("error al escanear total mensual: %w", err)
		}
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return totals, nil
}

// ProviderYearlyTotals agrupa el año por proveedor; los períodos sin
// proveedor caen en el bucket "Sin proveedor". Ordena por monto
// descendente.
func (r *aggregateRepository) ProviderYearlyTotals(year int) ([]*domain.ProviderTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			CASE
				WHEN sp.provider IS NULL OR TRIM(sp.provider) = '' THEN '%s'
				ELSE sp.provider
			END AS provider,
			SUM(sr.quantity) AS total_quantity,
			SUM(sr.amount) AS total_amount
		FROM %s
		WHERE %s = ?
		GROUP BY provider
		ORDER BY total_amount DESC
	`, NoProviderLabel, recordsJoin, yearExpr)

	return r.queryProviderTotals(query, fmt.Sprintf("%d", year))
}

func (r *aggregateRepository) queryProviderTotals(query string, args ...interface{}) ([]*domain.ProviderTotal, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	totals := make([]*domain.ProviderTotal, 0)
	for rows.Next() {
		total := &domain.ProviderTotal{}
		if err := rows.Scan(&total.Provider, &total.TotalQuantity, &total.TotalAmount); err != nil {
			return nil, fmt.Errorf("error al escanear total por proveedor: %w", err)
		}
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return totals, nil
}

func (r *aggregateRepository) YearlyBranchTotals(year int) ([]*domain.BranchTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			sr.branch,
			SUM(sr.quantity) AS total_quantity,
			SUM(sr.amount) AS total_amount
		FROM %s
		WHERE %s = ?
		GROUP BY sr.branch
	`, recordsJoin, yearExpr)

	return r.queryBranchTotals(query, fmt.Sprintf("%d", year))
}

// YearlyTotals suma por año, opcionalmente filtrado por proveedor y por
// texto de producto. Cada palabra del texto debe aparecer en la
// descripción o el código, sin distinguir mayúsculas.
func (r *aggregateRepository) YearlyTotals(provider, searchText string) ([]*domain.YearlyTotal, error) {
	builder := squirrel.
		Select(
			"CAST("+yearExpr+" AS INTEGER) AS year",
			"SUM(sr.quantity) AS total_quantity",
			"SUM(sr.amount) AS total_amount",
		).
		From(recordsJoin).
		Where(periodDate + " IS NOT NULL")

	if provider != "" {
		builder = builder.Where(squirrel.Eq{"sp.provider": provider})
	}

	for _, term := range strings.Fields(strings.ToLower(searchText)) {
		builder = builder.Where(
			"LOWER(COALESCE(sr.description, '') || ' ' || COALESCE(sr.product_code, '')) LIKE ?",
			"%"+term+"%",
		)
	}

	query, args, err := builder.
		GroupBy("year").
		OrderBy("year ASC").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	totals := make([]*domain.YearlyTotal, 0)
	for rows.Next() {
		total := &domain.YearlyTotal{}
		if err := rows.Scan(&total.Year, &total.TotalQuantity, &total.TotalAmount); err != nil {
			return nil, fmt.Errorf("error al escanear total anual: %w", err)
		}
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return totals, nil
}

func (r *aggregateRepository) YearlyProductTotals(year int) ([]*domain.ProductTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(sr.product_code, '') AS product_code,
			COALESCE(sr.description, '') AS description,
			SUM(sr.quantity) AS total_quantity,
			SUM(sr.amount) AS total_amount
		FROM %s
		WHERE %s = ?
		GROUP BY sr.product_code, sr.description
	`, recordsJoin, yearExpr)

	return r.queryProductTotals(query, fmt.Sprintf("%d", year))
}

func (r *aggregateRepository) MonthlyBranchTotals(monthKey string) ([]*domain.BranchTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			sr.branch,
			SUM(sr.quantity) AS total_quantity,
			SUM(sr.amount) AS total_amount
		FROM %s
		WHERE %s = ?
		GROUP BY sr.branch
	`, recordsJoin, monthKeyExpr)

	return r.queryBranchTotals(query, monthKey)
}

func (r *aggregateRepository) MonthlyProductTotals(monthKey string) ([]*domain.ProductTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(sr.product_code, '') AS product_code,
			COALESCE(sr.description, '') AS description,
			SUM(sr.quantity) AS total_quantity,
			SUM(sr.amount) AS total_amount
		FROM %s
		WHERE %s = ?
		GROUP BY sr.product_code, sr.description
	`, recordsJoin, monthKeyExpr)

	return r.queryProductTotals(query, monthKey)
}

// MonthlyProductBranchTotals abre el mes de un producto por sucursal.
func (r *aggregateRepository) MonthlyProductBranchTotals(monthKey, productCode, description string) ([]*domain.BranchTotal, error) {
	builder := squirrel.
		Select(
			"sr.branch",
			"SUM(sr.quantity) AS total_quantity",
			"SUM(sr.amount) AS total_amount",
		).
		From(recordsJoin).
		Where(monthKeyExpr+" = ?", monthKey)

	if productCode != "" {
		builder = builder.Where(squirrel.Eq{"sr.product_code": productCode})
	}
	if description != "" {
		builder = builder.Where(squirrel.Eq{"sr.description": description})
	}

	query, args, err := builder.
		GroupBy("sr.branch").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	return r.queryBranchTotals(query, args...)
}

func (r *aggregateRepository) MonthlySummary(monthKey, provider string) ([]*domain.MonthSummaryRow, error) {
	builder := squirrel.
		Select(
			"COALESCE(sr.product_code, '') AS product_code",
			"COALESCE(sr.description, '') AS description",
			"sr.branch",
			"SUM(sr.quantity) AS total_quantity",
			"SUM(sr.amount) AS total_amount",
		).
		From(recordsJoin).
		Where(monthKeyExpr+" = ?", monthKey)

	if provider != "" {
		builder = builder.Where(squirrel.Eq{"sp.provider": provider})
	}

	query, args, err := builder.
		GroupBy("sr.product_code", "sr.description", "sr.branch").
		OrderBy("sr.description").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	summary := make([]*domain.MonthSummaryRow, 0)
	for rows.Next() {
		row := &domain.MonthSummaryRow{}
		if err := rows.Scan(
			&row.ProductCode,
			&row.Description,
			&row.Branch,
			&row.TotalQuantity,
			&row.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("error al escanear resumen mensual: %w", err)
		}
		summary = append(summary, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return summary, nil
}

// ProductHistory devuelve la serie mes a mes de un producto, abierta
// por sucursal. Sin código ni descripción no hay qué buscar.
func (r *aggregateRepository) ProductHistory(productCode, description string) ([]*domain.ProductHistoryRow, error) {
	if productCode == "" && description == "" {
		return []*domain.ProductHistoryRow{}, nil
	}

	builder := squirrel.
		Select(
			monthKeyExpr+" AS month_key",
			"sr.branch",
			"SUM(sr.quantity) AS total_quantity",
		).
		From(recordsJoin)

	if productCode != "" {
		builder = builder.Where(squirrel.Eq{"sr.product_code": productCode})
	}
	if description != "" {
		builder = builder.Where(squirrel.Eq{"sr.description": description})
	}

	query, args, err := builder.
		GroupBy("month_key", "sr.branch").
		OrderBy("month_key ASC").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error al construir la query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	history := make([]*domain.ProductHistoryRow, 0)
	for rows.Next() {
		row := &domain.ProductHistoryRow{}
		if err := rows.Scan(&row.MonthKey, &row.Branch, &row.TotalQuantity); err != nil {
			return nil, fmt.Errorf("error al escanear historial: %w", err)
		}
		history = append(history, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return history, nil
}

func (r *aggregateRepository) queryBranchTotals(query string, args ...interface{}) ([]*domain.BranchTotal, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	totals := make([]*domain.BranchTotal, 0)
	for rows.Next() {
		total := &domain.BranchTotal{}
		if err := rows.Scan(&total.Branch, &total.TotalQuantity, &total.TotalAmount); err != nil {
			return nil, fmt.Errorf("error al escanear total por sucursal: %w", err)
		}
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return totals, nil
}

func (r *aggregateRepository) queryProductTotals(query string, args ...interface{}) ([]*domain.ProductTotal, error) {
	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al ejecutar la query: %w", err)
	}
	defer rows.Close()

	totals := make([]*domain.ProductTotal, 0)
	for rows.Next() {
		total := &domain.ProductTotal{}
		if err := rows.Scan(
			&total.ProductCode,
			&total.Description,
			&total.TotalQuantity,
			&total.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("error al escanear total por producto: %w", err)
		}
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return totals, nil
}
