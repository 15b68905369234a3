package excel

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// CellKind distingue los valores crudos de una planilla.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell es una celda sin tipar: texto, número, fecha o vacío. El
// extractor decide qué significa cada una según su posición.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// RawSheet es la grilla completa de una hoja, filas por columnas, sin
// suposiciones sobre el ancho de cada fila.
type RawSheet [][]Cell

// LoadSheet abre un libro y devuelve la primera hoja como grilla cruda.
func LoadSheet(path string) (RawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "no se pudo abrir %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Errorf("el archivo %s no tiene hojas", path)
	}

	return readSheet(f, sheets[0])
}

func readSheet(f *excelize.File, sheet string) (RawSheet, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "no se pudo leer la hoja %s", sheet)
	}

	grid := make(RawSheet, len(rows))
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			cells[c] = classifyCell(f, sheet, r, c, raw)
		}
		grid[r] = cells
	}

	return grid, nil
}

func classifyCell(f *excelize.File, sheet string, row, col int, raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return Cell{Kind: CellEmpty}
	}

	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err == nil {
		kind, kerr := f.GetCellType(sheet, name)
		if kerr == nil {
			switch kind {
			case excelize.CellTypeDate:
				if serial, perr := strconv.ParseFloat(raw, 64); perr == nil {
					if date, derr := excelize.ExcelDateToTime(serial, false); derr == nil {
						return Cell{Kind: CellDate, Date: date}
					}
				}
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
				// Un código como "001" guardado como texto debe seguir
				// siendo texto aunque parsee como número.
				return Cell{Kind: CellText, Text: raw}
			}
		}
	}

	if number, perr := strconv.ParseFloat(raw, 64); perr == nil {
		return Cell{Kind: CellNumber, Number: number}
	}

	return Cell{Kind: CellText, Text: raw}
}

// FindRowIndex devuelve el índice de la primera fila que cumple el
// predicado, o -1.
func (s RawSheet) FindRowIndex(pred func(row []Cell) bool) int {
	for idx, row := range s {
		if pred(row) {
			return idx
		}
	}
	return -1
}

// ValueRightOf busca una celda de texto cuyo contenido normalizado sea
// exactamente label y devuelve la celda inmediatamente a su derecha.
func (s RawSheet) ValueRightOf(label string) (Cell, bool) {
	for _, row := range s {
		for col, cell := range row {
			if cell.Kind != CellText {
				continue
			}
			if NormalizeText(cell.Text) == label && col+1 < len(row) {
				return row[col+1], true
			}
		}
	}
	return Cell{}, false
}

// CellAt accede de forma segura: fuera de rango devuelve celda vacía.
func CellAt(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return Cell{Kind: CellEmpty}
	}
	return row[idx]
}

// NormalizeText baja a minúsculas y recorta espacios; las celdas que no
// son texto normalizan a cadena vacía.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
