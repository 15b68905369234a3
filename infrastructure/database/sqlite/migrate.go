package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// migration es un paso de esquema numerado. Cada paso se aplica una
// sola vez, en orden, dentro de una transacción.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "esquema base",
		Apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sales_periods (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					provider TEXT,
					brand TEXT,
					plan_name TEXT,
					start_date TEXT,
					end_date TEXT,
					source_file TEXT NOT NULL UNIQUE
				);

				CREATE TABLE IF NOT EXISTS sales_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					period_id INTEGER NOT NULL,
					branch TEXT NOT NULL,
					product_code TEXT,
					description TEXT,
					quantity REAL,
					amount REAL,
					share REAL,
					FOREIGN KEY(period_id) REFERENCES sales_periods(id) ON DELETE CASCADE
				);

				CREATE INDEX IF NOT EXISTS idx_sales_records_period ON sales_records(period_id);
				CREATE INDEX IF NOT EXISTS idx_sales_records_branch ON sales_records(branch);

				CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					is_admin INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL DEFAULT (datetime('now'))
				);
			`)
			return err
		},
	},
	{
		Version: 2,
		Name:    "auditoría de períodos",
		Apply: func(tx *sql.Tx) error {
			// period_id admite NULL y se desengancha al borrar: la
			// auditoría sobrevive al período.
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS period_audit (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					period_id INTEGER,
					action TEXT NOT NULL,
					username TEXT NOT NULL,
					created_at TEXT NOT NULL DEFAULT (datetime('now')),
					source_file TEXT,
					provider TEXT,
					start_date TEXT,
					end_date TEXT,
					FOREIGN KEY(period_id) REFERENCES sales_periods(id) ON DELETE SET NULL
				);
			`)
			return err
		},
	},
	{
		Version: 3,
		Name:    "columna created_by",
		Apply: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE sales_periods ADD COLUMN created_by TEXT`); err != nil {
				return err
			}
			_, err := tx.Exec(`ALTER TABLE period_audit ADD COLUMN created_by TEXT`)
			return err
		},
	},
}

// Migrate aplica los pasos de esquema pendientes.
func Migrate(ctx context.Context, conn *Connection) error {
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("error al crear schema_version: %w", err)
	}

	current := 0
	row := conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("error al leer la versión de esquema: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
			if err := m.Apply(tx); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_version (version, name) VALUES (?, ?)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("error al aplicar la migración %d (%s): %w", m.Version, m.Name, err)
		}

		logrus.Infof("Migración %d aplicada: %s", m.Version, m.Name)
	}

	return nil
}
