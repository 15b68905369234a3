package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/elcacique/ventas-core/pkg/utils"
)

const (
	periodsTable = "sales_periods"
	recordsTable = "sales_records"
	auditTable   = "period_audit"
)

// ErrPeriodNotFound indica que el período pedido no existe en la base.
var ErrPeriodNotFound = fmt.Errorf("período inexistente")

type PeriodRepository interface {
	StoreBatch(ctx context.Context, batch *domain.SalesBatch, createdBy string) (int, error)
	DeletePeriod(ctx context.Context, periodID int, deletedBy string) error
	ClearAll(ctx context.Context) error
	ListPeriods() ([]*domain.Period, error)
	GetPeriod(periodID int) (*domain.Period, error)
	GetPeriodBySource(sourceFile string) (*domain.Period, error)
	ListBranches(periodID int) ([]string, error)
	FetchRecords(periodID int, branch string) ([]*domain.SalesRecord, error)
}

type periodRepository struct {
	conn *sqlite.Connection
}

func NewPeriodRepository(conn *sqlite.Connection) PeriodRepository {
	return &periodRepository{
		conn: conn,
	}
}

// StoreBatch inserta o actualiza el período identificado por el nombre
// de archivo y reemplaza todos sus registros. Devuelve la cantidad de
// registros insertados. Un lote vacío no toca la base.
func (r *periodRepository) StoreBatch(ctx context.Context, batch *domain.SalesBatch, createdBy string) (int, error) {
	if len(batch.Records) == 0 {
		return 0, nil
	}

	createdBy = normalizeUsername(createdBy)

	err := r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		query, args, err := squirrel.
			Insert(periodsTable).
			Columns("provider", "brand", "plan_name", "start_date", "end_date", "source_file", "created_by").
			Values(
				batch.Provider,
				batch.Brand,
				batch.PlanName,
				dateToText(batch.PeriodStart),
				dateToText(batch.PeriodEnd),
				batch.SourceFile,
				nullIfEmpty(createdBy),
			).
			Suffix(`
				ON CONFLICT(source_file) DO UPDATE SET
					provider=excluded.provider,
					brand=excluded.brand,
					plan_name=excluded.plan_name,
					start_date=excluded.start_date,
					end_date=excluded.end_date,
					created_by=excluded.created_by
			`).
			PlaceholderFormat(squirrel.Question).
			ToSql()
		if err != nil {
			return fmt.Errorf("error al construir la query: %w", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("error al guardar el período: %w", err)
		}

		periodID, err := r.getPeriodID(tx, batch.SourceFile)
		if err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM sales_records WHERE period_id = ?", periodID); err != nil {
			return fmt.Errorf("error al limpiar registros anteriores: %w", err)
		}

		insert := squirrel.
			Insert(recordsTable).
			Columns("period_id", "branch", "product_code", "description", "quantity", "amount", "share")
		for _, record := range batch.Records {
			insert = insert.Values(
				periodID,
				record.Branch,
				record.ProductCode,
				record.Description,
				record.Quantity,
				record.Amount,
				record.SharePercentage,
			)
		}

		query, args, err = insert.PlaceholderFormat(squirrel.Question).ToSql()
		if err != nil {
			return fmt.Errorf("error al construir la query: %w", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("error al insertar registros: %w", err)
		}

		if createdBy != "" {
			if err := r.logAction(tx, periodID, domain.AuditActionImport, createdBy); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(batch.Records), nil
}

// DeletePeriod registra la auditoría con los metadatos vigentes y borra
// el período con sus registros.
func (r *periodRepository) DeletePeriod(ctx context.Context, periodID int, deletedBy string) error {
	deletedBy = normalizeUsername(deletedBy)

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if deletedBy != "" {
			if err := r.logAction(tx, periodID, domain.AuditActionDelete, deletedBy); err != nil {
				return err
			}
		}

		if _, err := tx.Exec("DELETE FROM sales_records WHERE period_id = ?", periodID); err != nil {
			return fmt.Errorf("error al borrar registros del período: %w", err)
		}

		result, err := tx.Exec("DELETE FROM sales_periods WHERE id = ?", periodID)
		if err != nil {
			return fmt.Errorf("error al borrar el período: %w", err)
		}
		if deleted, err := result.RowsAffected(); err == nil && deleted == 0 {
			return fmt.Errorf("%w: id %d", ErrPeriodNotFound, periodID)
		}

		return nil
	})
}

// ClearAll borra todas las importaciones y compacta el archivo.
func (r *periodRepository) ClearAll(ctx context.Context) error {
	err := r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM sales_records"); err != nil {
			return err
		}
		_, err := tx.Exec("DELETE FROM sales_periods")
		return err
	})
	if err != nil {
		return fmt.Errorf("error al vaciar la base: %w", err)
	}

	// VACUUM no puede correr dentro de una transacción.
	if _, err := r.conn.Exec("VACUUM"); err != nil {
		return fmt.Errorf("error al compactar la base: %w", err)
	}

	return nil
}

func (r *periodRepository) ListPeriods() ([]*domain.Period, error) {
	query, args, err := squirrel.
		Select("id", "provider", "brand", "plan_name", "start_date", "end_date", "source_file", "created_by").
		From(periodsTable).
		OrderBy("COALESCE(start_date, end_date) DESC", "id DESC").
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

	periods := make([]*domain.Period, 0)
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("error al escanear período: %w", err)
		}
		periods = append(periods, period)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return periods, nil
}

func (r *periodRepository) GetPeriod(periodID int) (*domain.Period, error) {
	query, args, err := squirrel.
		Select("id", "provider", "brand", "plan_name", "start_date", "end_date", "source_file", "created_by").
		From(periodsTable).
		Where(squirrel.Eq{"id": periodID}).
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

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: id %d", ErrPeriodNotFound, periodID)
	}

	period, err := scanPeriod(rows)
	if err != nil {
		return nil, fmt.Errorf("error al escanear período: %w", err)
	}

	return period, nil
}

// GetPeriodBySource busca el período por su clave natural, el nombre
// del archivo importado.
func (r *periodRepository) GetPeriodBySource(sourceFile string) (*domain.Period, error) {
	query, args, err := squirrel.
		Select("id", "provider", "brand", "plan_name", "start_date", "end_date", "source_file", "created_by").
		From(periodsTable).
		Where(squirrel.Eq{"source_file": sourceFile}).
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

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrPeriodNotFound, sourceFile)
	}

	period, err := scanPeriod(rows)
	if err != nil {
		return nil, fmt.Errorf("error al escanear período: %w", err)
	}

	return period, nil
}

func (r *periodRepository) ListBranches(periodID int) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT branch").
		From(recordsTable).
		Where(squirrel.Eq{"period_id": periodID}).
		OrderBy("branch COLLATE NOCASE").
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

	branches := make([]string, 0)
	for rows.Next() {
		var branch string
		if err := rows.Scan(&branch); err != nil {
			return nil, fmt.Errorf("error al escanear sucursal: %w", err)
		}
		branches = append(branches, branch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return branches, nil
}

// FetchRecords devuelve los registros crudos de un período, opcionalmente
// filtrados por sucursal, ordenados por sucursal y monto descendente.
func (r *periodRepository) FetchRecords(periodID int, branch string) ([]*domain.SalesRecord, error) {
	builder := squirrel.
		Select("sr.branch", "sr.product_code", "sr.description", "sr.quantity", "sr.amount", "sr.share").
		From(recordsTable + " sr").
		Where(squirrel.Eq{"sr.period_id": periodID})

	if branch != "" {
		builder = builder.Where(squirrel.Eq{"sr.branch": branch})
	}

	query, args, err := builder.
		OrderBy("sr.branch", "sr.amount DESC").
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

	records := make([]*domain.SalesRecord, 0)
	for rows.Next() {
		record := &domain.SalesRecord{}
		var code, description sql.NullString
		if err := rows.Scan(
			&record.Branch,
			&code,
			&description,
			&record.Quantity,
			&record.Amount,
			&record.SharePercentage,
		); err != nil {
			return nil, fmt.Errorf("error al escanear registro: %w", err)
		}
		record.ProductCode = code.String
		record.Description = description.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return records, nil
}

func (r *periodRepository) getPeriodID(q sqlite.Queryer, sourceFile string) (int, error) {
	var id int
	err := q.QueryRow("SELECT id FROM sales_periods WHERE source_file = ?", sourceFile).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", ErrPeriodNotFound, sourceFile)
	}
	if err != nil {
		return 0, fmt.Errorf("error al buscar el período: %w", err)
	}
	return id, nil
}

// logAction copia los metadatos del período dentro de la entrada de
// auditoría, para que sobreviva al borrado.
func (r *periodRepository) logAction(q sqlite.Queryer, periodID int, action, username string) error {
	var sourceFile, provider, startDate, endDate, createdBy sql.NullString
	err := q.QueryRow(
		"SELECT source_file, provider, start_date, end_date, created_by FROM sales_periods WHERE id = ?",
		periodID,
	).Scan(&sourceFile, &provider, &startDate, &endDate, &createdBy)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error al leer el período para auditoría: %w", err)
	}

	query, args, err := squirrel.
		Insert(auditTable).
		Columns("period_id", "action", "username", "source_file", "provider", "start_date", "end_date", "created_by").
		Values(periodID, action, username, sourceFile, provider, startDate, endDate, createdBy).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("error al construir la query: %w", err)
	}

	if _, err := q.Exec(query, args...); err != nil {
		return fmt.Errorf("error al registrar auditoría: %w", err)
	}

	return nil
}

func scanPeriod(rows *sql.Rows) (*domain.Period, error) {
	period := &domain.Period{}
	var provider, brand, planName, startDate, endDate, createdBy sql.NullString

	if err := rows.Scan(
		&period.ID,
		&provider,
		&brand,
		&planName,
		&startDate,
		&endDate,
		&period.SourceFile,
		&createdBy,
	); err != nil {
		return nil, err
	}

	period.Provider = nullableString(provider)
	period.Brand = nullableString(brand)
	period.PlanName = nullableString(planName)
	period.StartDate = textToDate(startDate)
	period.EndDate = textToDate(endDate)
	period.CreatedBy = nullableString(createdBy)

	return period, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func dateToText(value *time.Time) *string {
	if value == nil {
		return nil
	}
	text := value.Format(time.DateOnly)
	return &text
}

// textToDate tolera fechas ilegibles en la base: una fila vieja con
// basura en la columna no debe romper los listados.
func textToDate(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	date, err := utils.ParseDate(v.String)
	if err != nil {
		return nil
	}
	return date
}
