package domain

import "time"

// Acciones registradas en la auditoría de períodos.
const (
	AuditActionImport = "IMPORT"
	AuditActionDelete = "DELETE"
)

// Period es un archivo importado ya persistido, con sus metadatos.
type Period struct {
	ID        int        `json:"id"`
	Provider  *string    `json:"provider"`
	Brand     *string    `json:"brand"`
	PlanName  *string    `json:"plan_name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	SourceFile string    `json:"source_file"`
	CreatedBy *string    `json:"created_by"`
}

// PeriodAudit es una entrada del log de auditoría. Guarda una copia de
// los metadatos del período para que la entrada sobreviva al borrado.
type PeriodAudit struct {
	ID         int        `json:"id"`
	PeriodID   *int       `json:"period_id"`
	Action     string     `json:"action"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"created_at"`
	SourceFile *string    `json:"source_file"`
	Provider   *string    `json:"provider"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	CreatedBy  *string    `json:"created_by"`
}

// AuditFilter limita la consulta del log de auditoría.
type AuditFilter struct {
	Username  string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}
