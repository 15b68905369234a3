package excel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ToNumber convierte una celda a número con la convención latina:
// "." separa miles y "," decimales; un "%" suelto se descarta.
// Devuelve nil si la celda está vacía o no se puede interpretar —
// el flujo de ventas degrada a 0 en vez de abortar el archivo.
func ToNumber(cell Cell) *float64 {
	switch cell.Kind {
	case CellNumber:
		v := cell.Number
		return &v
	case CellText:
		if v, err := parseLatinNumber(cell.Text); err == nil {
			return &v
		}
		return nil
	default:
		return nil
	}
}

// MustNumber es la variante estricta para columnas obligatorias
// (extractos debe/haber): una celda vacía vale 0, una celda ilegible
// corta la fila con error.
func MustNumber(cell Cell) (float64, error) {
	switch cell.Kind {
	case CellEmpty:
		return 0, nil
	case CellNumber:
		return cell.Number, nil
	case CellDate:
		return 0, fmt.Errorf("se esperaba un número y la celda es una fecha")
	default:
		v, err := parseLatinNumber(cell.Text)
		if err != nil {
			return 0, fmt.Errorf("no se pudo convertir el valor numérico %q", cell.Text)
		}
		return v, nil
	}
}

func parseLatinNumber(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("celda vacía")
	}
	normalized := strings.ReplaceAll(text, "%", "")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	return strconv.ParseFloat(strings.TrimSpace(normalized), 64)
}

// FormatCode da formato a códigos de producto: los numéricos enteros
// pierden el ".0" con el que los exporta el Excel, los no enteros
// conservan su precisión y el texto pasa recortado.
func FormatCode(cell Cell) string {
	switch cell.Kind {
	case CellNumber:
		if cell.Number == float64(int64(cell.Number)) {
			return strconv.FormatInt(int64(cell.Number), 10)
		}
		return strconv.FormatFloat(cell.Number, 'f', -1, 64)
	case CellText:
		return strings.TrimSpace(cell.Text)
	default:
		return ""
	}
}

// CleanCell convierte cualquier celda a texto para campos descriptivos.
func CleanCell(cell Cell) string {
	switch cell.Kind {
	case CellNumber:
		if cell.Number == float64(int64(cell.Number)) {
			return strconv.FormatInt(int64(cell.Number), 10)
		}
		return strconv.FormatFloat(cell.Number, 'f', 2, 64)
	case CellText:
		return strings.TrimSpace(cell.Text)
	case CellDate:
		return cell.Date.Format(time.DateOnly)
	default:
		return ""
	}
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006"}

// ParseCellDate intenta interpretar la celda como fecha: las celdas de
// fecha van directo, los números se tratan como serial de Excel y el
// texto se prueba contra los formatos conocidos (ISO, con barras y
// día primero). Devuelve nil si nada funciona; las fechas de período
// son opcionales.
func ParseCellDate(cell Cell) *time.Time {
	switch cell.Kind {
	case CellDate:
		d := cell.Date
		return &d
	case CellNumber:
		if date, err := excelize.ExcelDateToTime(cell.Number, false); err == nil {
			d := date.Truncate(24 * time.Hour)
			return &d
		}
		return nil
	case CellText:
		text := strings.TrimSpace(cell.Text)
		for _, layout := range dateLayouts {
			if date, err := time.Parse(layout, text); err == nil {
				return &date
			}
		}
		return nil
	default:
		return nil
	}
}
