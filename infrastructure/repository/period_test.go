package repository

import (
	"context"
	"testing"
	"time"

	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(t *testing.T) *sqlite.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewMemoryConnection(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, sqlite.Migrate(ctx, conn))
	return conn
}

func testBatch(sourceFile, provider string, start time.Time, records []*domain.SalesRecord) *domain.SalesBatch {
	end := start.AddDate(0, 1, -1)
	return &domain.SalesBatch{
		SourceFile:  sourceFile,
		Provider:    &provider,
		PeriodStart: &start,
		PeriodEnd:   &end,
		Records:     records,
	}
}

func record(branch, code, description string, quantity, amount float64) *domain.SalesRecord {
	return &domain.SalesRecord{
		Branch:      branch,
		ProductCode: code,
		Description: description,
		Quantity:    quantity,
		Amount:      amount,
	}
}

func TestStoreBatchIdempotent(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)
	ctx := context.Background()

	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	batch := testBatch("ventas_mayo.xlsx", "ACME", start, []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 10, 1000),
		record("Norte", "A2", "Azúcar", 5, 500),
	})

	stored, err := repo.StoreBatch(ctx, batch, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	period, err := repo.GetPeriodBySource("ventas_mayo.xlsx")
	require.NoError(t, err)

	// Reimportar el mismo archivo reemplaza los registros sin duplicar
	// el período.
	batch.Records = []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 12, 1200),
	}
	stored, err = repo.StoreBatch(ctx, batch, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	periods, err := repo.ListPeriods()
	require.NoError(t, err)
	require.Len(t, periods, 1)

	again, err := repo.GetPeriodBySource("ventas_mayo.xlsx")
	require.NoError(t, err)
	assert.Equal(t, period.ID, again.ID)

	records, err := repo.FetchRecords(period.ID, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1200, records[0].Amount, 1e-9)
}

func TestStoreBatchEmpty(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)

	stored, err := repo.StoreBatch(context.Background(), &domain.SalesBatch{SourceFile: "vacio.xlsx"}, "admin")
	require.NoError(t, err)
	assert.Zero(t, stored)

	_, err = repo.GetPeriodBySource("vacio.xlsx")
	assert.ErrorIs(t, err, ErrPeriodNotFound)

	periods, err := repo.ListPeriods()
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestListBranchesAndFetchRecords(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)
	ctx := context.Background()

	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	batch := testBatch("ventas.xlsx", "ACME", start, []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 10, 1000),
		record("Centro", "A2", "Azúcar", 5, 500),
		record("Norte", "A1", "Yerba", 2, 200),
	})

	stored, err := repo.StoreBatch(ctx, batch, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	period, err := repo.GetPeriodBySource("ventas.xlsx")
	require.NoError(t, err)
	periodID := period.ID

	branches, err := repo.ListBranches(periodID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Centro", "Norte"}, branches)

	centro, err := repo.FetchRecords(periodID, "Centro")
	require.NoError(t, err)
	assert.Len(t, centro, 2)

	all, err := repo.FetchRecords(periodID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeletePeriodKeepsAudit(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)
	auditRepo := NewAuditRepository(conn)
	ctx := context.Background()

	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	batch := testBatch("ventas.xlsx", "ACME", start, []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 10, 1000),
	})

	_, err := repo.StoreBatch(ctx, batch, "admin")
	require.NoError(t, err)

	period, err := repo.GetPeriodBySource("ventas.xlsx")
	require.NoError(t, err)
	periodID := period.ID

	require.NoError(t, repo.DeletePeriod(ctx, periodID, "admin"))

	_, err = repo.GetPeriod(periodID)
	assert.ErrorIs(t, err, ErrPeriodNotFound)

	records, err := repo.FetchRecords(periodID, "")
	require.NoError(t, err)
	assert.Empty(t, records)

	// La entrada de borrado sobrevive con los metadatos copiados aunque
	// el período ya no exista.
	entries, err := auditRepo.FetchAudit(domain.AuditFilter{Action: domain.AuditActionDelete})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "admin", entry.Username)
	assert.Nil(t, entry.PeriodID)
	require.NotNil(t, entry.SourceFile)
	assert.Equal(t, "ventas.xlsx", *entry.SourceFile)
	require.NotNil(t, entry.Provider)
	assert.Equal(t, "ACME", *entry.Provider)
}

func TestDeletePeriodNotFound(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)

	err := repo.DeletePeriod(context.Background(), 999, "admin")
	assert.ErrorIs(t, err, ErrPeriodNotFound)
}

func TestClearAll(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)
	ctx := context.Background()

	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, file := range []string{"a.xlsx", "b.xlsx"} {
		_, err := repo.StoreBatch(ctx, testBatch(file, "ACME", start, []*domain.SalesRecord{
			record("Centro", "A1", "Yerba", 1, 100),
		}), "admin")
		require.NoError(t, err)
	}

	require.NoError(t, repo.ClearAll(ctx))

	periods, err := repo.ListPeriods()
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestFetchAuditFilters(t *testing.T) {
	conn := newTestConn(t)
	repo := NewPeriodRepository(conn)
	auditRepo := NewAuditRepository(conn)
	ctx := context.Background()

	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.StoreBatch(ctx, testBatch("a.xlsx", "ACME", start, []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 1, 100),
	}), "maria")
	require.NoError(t, err)

	_, err = repo.StoreBatch(ctx, testBatch("b.xlsx", "ACME", start, []*domain.SalesRecord{
		record("Centro", "A1", "Yerba", 1, 100),
	}), "jose")
	require.NoError(t, err)

	all, err := auditRepo.FetchAudit(domain.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byUser, err := auditRepo.FetchAudit(domain.AuditFilter{Username: "mar"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "maria", byUser[0].Username)

	byAction, err := auditRepo.FetchAudit(domain.AuditFilter{Action: domain.AuditActionImport})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	limited, err := auditRepo.FetchAudit(domain.AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
