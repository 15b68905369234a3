package excel

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/elcacique/ventas-core/internal/domain"
)

// Etiquetas que suelen aparecer como encabezados de metadatos en los
// reportes de ventas.
var metadataLabels = []struct {
	Label string
	Field func(batch *domain.SalesBatch, value string)
}{
	{"proveedor", func(b *domain.SalesBatch, v string) { b.Provider = &v }},
	{"marca", func(b *domain.SalesBatch, v string) { b.Brand = &v }},
	{"planilla ofertas", func(b *domain.SalesBatch, v string) { b.PlanName = &v }},
	{"planilla oferta", func(b *domain.SalesBatch, v string) { b.PlanName = &v }},
}

// Textos históricos que equivalen a una sucursal conocida.
var branchAliases = map[string]string{
	"COMERCIAL EL CACIQUE":        "Casa Central",
	"COMERCIAL EL CACIQUE S.R.L.": "Casa Central",
	"CASA CENTRAL":                "Casa Central",
}

// Encabezados que identifican la fila de títulos de la tabla de ventas.
var headerMarkers = []string{"producto", "cantidad", "venta"}

const branchPrefix = "SUCURSAL"

// Posiciones fijas de las columnas de datos respecto de la hoja.
const (
	colCode        = 1
	colDescription = 2
	colQuantity    = 3
	colAmount      = 4
	colShare       = 5
)

// Extractor convierte los reportes Excel de ventas en SalesBatch.
// Keyword, si no está vacío, filtra registros cuya descripción no
// contenga ese texto.
type Extractor struct {
	Keyword string
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Load lee un archivo y devuelve el lote listo para persistir. Falla
// si no hay fila de encabezados o si ningún registro sobrevive a la
// extracción.
func (e *Extractor) Load(path string) (*domain.SalesBatch, error) {
	sheet, err := LoadSheet(path)
	if err != nil {
		return nil, NewExtractionError(filepath.Base(path), err)
	}

	headerIdx := sheet.FindRowIndex(isHeaderRow)
	if headerIdx < 0 {
		return nil, NewExtractionError(filepath.Base(path), ErrNoHeader)
	}

	batch := &domain.SalesBatch{
		SourceFile: filepath.Base(path),
	}

	e.extractMetadata(sheet, batch)
	batch.PeriodStart = findPeriodDate(sheet, "fecha desde")
	batch.PeriodEnd = findPeriodDate(sheet, "fecha hasta")

	batch.Records = e.extractRecords(sheet, headerIdx+1)
	if len(batch.Records) == 0 {
		return nil, NewExtractionError(filepath.Base(path), ErrNoRecords)
	}

	return batch, nil
}

// isHeaderRow reconoce la fila cuyos textos normalizados contienen
// todos los encabezados esperados.
func isHeaderRow(row []Cell) bool {
	seen := make(map[string]bool, len(row))
	for _, cell := range row {
		if cell.Kind == CellText {
			seen[NormalizeText(cell.Text)] = true
		}
	}
	for _, marker := range headerMarkers {
		if !seen[marker] {
			return false
		}
	}
	return true
}

// extractMetadata busca proveedor/marca/planilla en cualquier parte de
// la hoja; el valor es la celda a la derecha de la etiqueta. Todas son
// opcionales.
func (e *Extractor) extractMetadata(sheet RawSheet, batch *domain.SalesBatch) {
	for _, meta := range metadataLabels {
		cell, ok := sheet.ValueRightOf(meta.Label)
		if !ok {
			continue
		}
		if value := CleanCell(cell); value != "" {
			meta.Field(batch, value)
		}
	}
}

func findPeriodDate(sheet RawSheet, label string) *time.Time {
	cell, ok := sheet.ValueRightOf(label)
	if !ok {
		return nil
	}
	return ParseCellDate(cell)
}

type recordKey struct {
	branch      string
	code        string
	description string
	quantity    float64
	amount      float64
}

// extractRecords recorre las filas de datos a partir de la fila que
// sigue al encabezado. Las filas de sucursal fijan el contexto; el
// resto se mapea por posición. Se descartan filas sin sucursal vigente,
// sin código ni descripción, o repetidas exactas.
func (e *Extractor) extractRecords(sheet RawSheet, startRow int) []*domain.SalesRecord {
	records := make([]*domain.SalesRecord, 0)
	currentBranch := ""
	seen := make(map[recordKey]bool)

	for idx := startRow; idx < len(sheet); idx++ {
		row := sheet[idx]

		if branch := pickBranch(row); branch != "" {
			currentBranch = branch
			continue
		}

		code := FormatCode(CellAt(row, colCode))
		description := CleanCell(CellAt(row, colDescription))
		quantity := ToNumber(CellAt(row, colQuantity))
		amount := ToNumber(CellAt(row, colAmount))
		share := ToNumber(CellAt(row, colShare))

		if currentBranch == "" {
			// Todavía no apareció una sucursal en el archivo.
			continue
		}
		if code == "" && description == "" {
			continue
		}
		if !e.containsKeyword(description) {
			continue
		}

		key := recordKey{
			branch:      currentBranch,
			code:        code,
			description: description,
			quantity:    valueOrZero(quantity),
			amount:      valueOrZero(amount),
		}
		if seen[key] {
			// Los Excel repiten filas; una sola alcanza.
			continue
		}
		seen[key] = true

		records = append(records, &domain.SalesRecord{
			Branch:          currentBranch,
			ProductCode:     code,
			Description:     description,
			Quantity:        valueOrZero(quantity),
			Amount:          valueOrZero(amount),
			SharePercentage: share,
		})
	}

	return records
}

// pickBranch devuelve el nombre de sucursal si alguna celda de la fila
// es un marcador ("SUCURSAL ..." o un alias conocido), o "" si la fila
// es de datos.
func pickBranch(row []Cell) string {
	for _, cell := range row {
		if cell.Kind != CellText {
			continue
		}
		text := strings.TrimSpace(cell.Text)
		if strings.HasPrefix(strings.ToUpper(text), branchPrefix) {
			branch := strings.TrimSpace(text[len(branchPrefix):])
			if branch == "" {
				branch = text
			}
			return normalizeBranch(branch)
		}
		if alias, ok := branchAliases[strings.ToUpper(text)]; ok {
			return alias
		}
	}
	return ""
}

func normalizeBranch(branch string) string {
	if alias, ok := branchAliases[strings.ToUpper(strings.TrimSpace(branch))]; ok {
		return alias
	}
	return strings.TrimSpace(branch)
}

func (e *Extractor) containsKeyword(description string) bool {
	if e.Keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(e.Keyword))
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
