package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/internal/domain"
)

const defaultAuditLimit = 200

type AuditRepository interface {
	FetchAudit(filter domain.AuditFilter) ([]*domain.PeriodAudit, error)
}

type auditRepository struct {
	conn *sqlite.Connection
}

func NewAuditRepository(conn *sqlite.Connection) AuditRepository {
	return &auditRepository{
		conn: conn,
	}
}

// FetchAudit devuelve las entradas más recientes del log, con filtros
// opcionales por usuario (subcadena), acción y rango de fechas.
func (r *auditRepository) FetchAudit(filter domain.AuditFilter) ([]*domain.PeriodAudit, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	builder := squirrel.
		Select(
			"id", "period_id", "action", "username", "created_at",
			"source_file", "provider", "start_date", "end_date", "created_by",
		).
		From(auditTable)

	if filter.Username != "" {
		builder = builder.Where(
			"LOWER(username) LIKE ?",
			"%"+normalizeUsername(filter.Username)+"%",
		)
	}
	if filter.Action != "" {
		builder = builder.Where(squirrel.Eq{"action": filter.Action})
	}
	if filter.StartDate != nil {
		builder = builder.Where("date(created_at) >= ?", filter.StartDate.Format(time.DateOnly))
	}
	if filter.EndDate != nil {
		builder = builder.Where("date(created_at) <= ?", filter.EndDate.Format(time.DateOnly))
	}

	query, args, err := builder.
		OrderBy("datetime(created_at) DESC", "id DESC").
		Limit(uint64(limit)).
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

	entries := make([]*domain.PeriodAudit, 0)
	for rows.Next() {
		entry, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("error al escanear auditoría: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error durante la iteración de filas: %w", err)
	}

	return entries, nil
}

func scanAudit(rows *sql.Rows) (*domain.PeriodAudit, error) {
	entry := &domain.PeriodAudit{}
	var periodID sql.NullInt64
	var createdAt string
	var sourceFile, provider, startDate, endDate, createdBy sql.NullString

	if err := rows.Scan(
		&entry.ID,
		&periodID,
		&entry.Action,
		&entry.Username,
		&createdAt,
		&sourceFile,
		&provider,
		&startDate,
		&endDate,
		&createdBy,
	); err != nil {
		return nil, err
	}

	if periodID.Valid {
		id := int(periodID.Int64)
		entry.PeriodID = &id
	}

	// SQLite guarda datetime('now') como texto UTC.
	when, err := time.Parse(time.DateTime, createdAt)
	if err != nil {
		return nil, fmt.Errorf("error al convertir fecha de auditoría: %w", err)
	}
	entry.CreatedAt = when

	entry.SourceFile = nullableString(sourceFile)
	entry.Provider = nullableString(provider)
	entry.StartDate = textToDate(startDate)
	entry.EndDate = textToDate(endDate)
	entry.CreatedBy = nullableString(createdBy)

	return entry, nil
}
