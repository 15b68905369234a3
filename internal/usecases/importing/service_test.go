package importing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/infrastructure/repository"
	"github.com/elcacique/ventas-core/internal/excel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestService(t *testing.T) (Importer, repository.PeriodRepository) {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewMemoryConnection(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, sqlite.Migrate(ctx, conn))

	periodRepo := repository.NewPeriodRepository(conn)
	return NewService(excel.NewExtractor(), periodRepo), periodRepo
}

// writeSalesFile arma una planilla mínima válida: encabezados, una
// sucursal y una fila de datos.
func writeSalesFile(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "Proveedor"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "ACME"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Fecha desde"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "2023-05-01"))

	require.NoError(t, f.SetCellValue(sheet, "B4", "Código"))
	require.NoError(t, f.SetCellValue(sheet, "C4", "Producto"))
	require.NoError(t, f.SetCellValue(sheet, "D4", "Cantidad"))
	require.NoError(t, f.SetCellValue(sheet, "E4", "Venta"))

	require.NoError(t, f.SetCellValue(sheet, "A5", "SUCURSAL Centro"))
	require.NoError(t, f.SetCellValue(sheet, "B6", "A1"))
	require.NoError(t, f.SetCellValue(sheet, "C6", "Yerba"))
	require.NoError(t, f.SetCellValue(sheet, "D6", 10))
	require.NoError(t, f.SetCellValue(sheet, "E6", 1000))

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeBrokenFile(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "sin encabezados"))

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFile(t *testing.T) {
	service, periodRepo := newTestService(t)
	path := writeSalesFile(t, t.TempDir(), "ventas.xlsx")

	result, err := service.ImportFile(context.Background(), path, "admin")
	require.NoError(t, err)

	assert.Equal(t, "ventas.xlsx", result.File)
	assert.NotZero(t, result.PeriodID)
	assert.Equal(t, 1, result.Records)
	require.NotNil(t, result.Provider)
	assert.Equal(t, "ACME", *result.Provider)

	records, err := periodRepo.FetchRecords(result.PeriodID, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Centro", records[0].Branch)

	// El ID del resultado es el del período persistido.
	period, err := periodRepo.GetPeriodBySource("ventas.xlsx")
	require.NoError(t, err)
	assert.Equal(t, period.ID, result.PeriodID)
}

func TestImportFolderPartialFailure(t *testing.T) {
	service, periodRepo := newTestService(t)
	dir := t.TempDir()
	writeSalesFile(t, dir, "buena.xlsx")
	writeBrokenFile(t, dir, "rota.xlsx")

	report, err := service.ImportFolder(context.Background(), dir, "admin")
	require.NoError(t, err)

	assert.NotEmpty(t, report.CorrelationID)
	require.Len(t, report.Imported, 1)
	assert.Equal(t, "buena.xlsx", report.Imported[0].File)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "rota.xlsx", report.Failed[0].File)
	assert.NotEmpty(t, report.Failed[0].Error)

	periods, err := periodRepo.ListPeriods()
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestWriteReport(t *testing.T) {
	service, _ := newTestService(t)
	dir := t.TempDir()
	writeSalesFile(t, dir, "ventas.xlsx")

	report, err := service.ImportFolder(context.Background(), dir, "admin")
	require.NoError(t, err)

	path := filepath.Join(dir, "reporte.json")
	require.NoError(t, WriteReport(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), report.CorrelationID)
	assert.Contains(t, string(data), "ventas.xlsx")
}
