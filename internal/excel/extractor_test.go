package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeSalesSheet arma una planilla de ventas con la estructura real:
// metadatos arriba, encabezados en la fila 5 y filas de sucursal que
// fijan el contexto de las filas de datos.
func writeSalesSheet(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "Proveedor"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "ACME"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Fecha desde"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "2023-05-01"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "Fecha hasta"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "2023-05-31"))

	require.NoError(t, f.SetCellValue(sheet, "B5", "Código"))
	require.NoError(t, f.SetCellValue(sheet, "C5", "Producto"))
	require.NoError(t, f.SetCellValue(sheet, "D5", "Cantidad"))
	require.NoError(t, f.SetCellValue(sheet, "E5", "Venta"))
	require.NoError(t, f.SetCellValue(sheet, "F5", "Participación"))

	require.NoError(t, f.SetCellValue(sheet, "A6", "SUCURSAL Centro"))
	require.NoError(t, f.SetCellValue(sheet, "B7", "A1"))
	require.NoError(t, f.SetCellValue(sheet, "C7", "Yerba 1kg"))
	require.NoError(t, f.SetCellValue(sheet, "D7", 10))
	require.NoError(t, f.SetCellValue(sheet, "E7", 1000))
	require.NoError(t, f.SetCellValue(sheet, "F7", "5%"))

	// Fila repetida exacta: tiene que deduplicarse.
	require.NoError(t, f.SetCellValue(sheet, "B8", "A1"))
	require.NoError(t, f.SetCellValue(sheet, "C8", "Yerba 1kg"))
	require.NoError(t, f.SetCellValue(sheet, "D8", 10))
	require.NoError(t, f.SetCellValue(sheet, "E8", 1000))
	require.NoError(t, f.SetCellValue(sheet, "F8", "5%"))

	require.NoError(t, f.SetCellValue(sheet, "B9", 1234))
	require.NoError(t, f.SetCellValue(sheet, "C9", "Azúcar"))
	require.NoError(t, f.SetCellValue(sheet, "D9", "2,5"))
	require.NoError(t, f.SetCellValue(sheet, "E9", "1.234,56"))

	require.NoError(t, f.SetCellValue(sheet, "A10", "COMERCIAL EL CACIQUE"))
	require.NoError(t, f.SetCellValue(sheet, "B11", "Z9"))
	require.NoError(t, f.SetCellValue(sheet, "C11", "Harina"))
	require.NoError(t, f.SetCellValue(sheet, "D11", 3))
	require.NoError(t, f.SetCellValue(sheet, "E11", 450))

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtractorLoad(t *testing.T) {
	path := writeSalesSheet(t, t.TempDir(), "ventas_mayo.xlsx")

	batch, err := NewExtractor().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ventas_mayo.xlsx", batch.SourceFile)
	require.NotNil(t, batch.Provider)
	assert.Equal(t, "ACME", *batch.Provider)
	require.NotNil(t, batch.PeriodStart)
	assert.Equal(t, "2023-05-01", batch.PeriodStart.Format("2006-01-02"))
	require.NotNil(t, batch.PeriodEnd)
	assert.Equal(t, "2023-05-31", batch.PeriodEnd.Format("2006-01-02"))

	// Tres filas de datos, una repetida: quedan tres registros únicos.
	require.Len(t, batch.Records, 3)

	first := batch.Records[0]
	assert.Equal(t, "Centro", first.Branch)
	assert.Equal(t, "A1", first.ProductCode)
	assert.Equal(t, "Yerba 1kg", first.Description)
	assert.InDelta(t, 10, first.Quantity, 1e-9)
	assert.InDelta(t, 1000, first.Amount, 1e-9)
	require.NotNil(t, first.SharePercentage)
	assert.InDelta(t, 5, *first.SharePercentage, 1e-9)

	second := batch.Records[1]
	assert.Equal(t, "1234", second.ProductCode)
	assert.InDelta(t, 2.5, second.Quantity, 1e-9)
	assert.InDelta(t, 1234.56, second.Amount, 1e-9)
	assert.Nil(t, second.SharePercentage)

	// El alias histórico mapea a la sucursal canónica.
	third := batch.Records[2]
	assert.Equal(t, "Casa Central", third.Branch)
	assert.Equal(t, "Harina", third.Description)
}

func TestExtractorKeywordFilter(t *testing.T) {
	path := writeSalesSheet(t, t.TempDir(), "ventas.xlsx")

	extractor := &Extractor{Keyword: "yerba"}
	batch, err := extractor.Load(path)
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "Yerba 1kg", batch.Records[0].Description)
}

func TestExtractorTextCodesKeepLeadingZeros(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "B1", "Código"))
	require.NoError(t, f.SetCellValue(sheet, "C1", "Producto"))
	require.NoError(t, f.SetCellValue(sheet, "D1", "Cantidad"))
	require.NoError(t, f.SetCellValue(sheet, "E1", "Venta"))

	require.NoError(t, f.SetCellValue(sheet, "A2", "SUCURSAL Centro"))

	// Código guardado como texto: los ceros a la izquierda son parte
	// del código y no pueden perderse.
	require.NoError(t, f.SetCellStr(sheet, "B3", "001"))
	require.NoError(t, f.SetCellValue(sheet, "C3", "Fideos"))
	require.NoError(t, f.SetCellValue(sheet, "D3", 2))
	require.NoError(t, f.SetCellValue(sheet, "E3", 100))

	path := filepath.Join(dir, "codigos.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	batch, err := NewExtractor().Load(path)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "001", batch.Records[0].ProductCode)
}

func TestPickBranchPreservesCase(t *testing.T) {
	row := []Cell{{Kind: CellText, Text: "SUCURSAL CENTRO"}}
	assert.Equal(t, "CENTRO", pickBranch(row))

	row = []Cell{{Kind: CellText, Text: "Sucursal Centro"}}
	assert.Equal(t, "Centro", pickBranch(row))
}

func TestExtractorNoHeader(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "cualquier cosa"))
	path := filepath.Join(dir, "vacio.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := NewExtractor().Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoHeader)
	assert.True(t, IsExtractionError(err))
}
