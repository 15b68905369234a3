package excel

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/pkg/errors"
)

// Encabezados del extracto contable exportado por el sistema de la
// administración.
const (
	ledgerDateColumn   = "FECHAMOVI"
	ledgerDebitColumn  = "DEBE"
	ledgerCreditColumn = "HABER"
)

// ledgerEntry es un movimiento individual del extracto.
type ledgerEntry struct {
	Date   time.Time
	Debit  float64
	Credit float64
}

// LedgerExtractor lee los extractos debe/haber. A diferencia del flujo
// de ventas, las columnas numéricas son obligatorias: una celda
// ilegible corta el archivo con error.
type LedgerExtractor struct{}

func NewLedgerExtractor() *LedgerExtractor {
	return &LedgerExtractor{}
}

// LoadFolder consolida todos los extractos .xls/.xlsx de la carpeta en
// un resumen diario: debe, haber, flujo neto y acumulado cronológico.
// Devuelve además la lista de archivos procesados, del más nuevo al
// más viejo.
func (l *LedgerExtractor) LoadFolder(dir string) ([]*domain.LedgerDay, []string, error) {
	files, err := ListExtracts(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, errors.Errorf("no se encontraron archivos .xls/.xlsx dentro de %s", dir)
	}

	entries := make([]ledgerEntry, 0)
	for _, file := range files {
		fileEntries, err := l.loadFile(file)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, fileEntries...)
	}

	return buildDailySummary(entries), files, nil
}

// loadFile interpreta un extracto: la primera fila es el encabezado y
// de ahí salen las posiciones de FECHAMOVI, DEBE y HABER.
func (l *LedgerExtractor) loadFile(path string) ([]ledgerEntry, error) {
	sheet, err := LoadSheet(path)
	if err != nil {
		return nil, NewExtractionError(filepath.Base(path), err)
	}
	if len(sheet) == 0 {
		return nil, NewExtractionError(filepath.Base(path), ErrMissingDateColumn)
	}

	dateCol, debitCol, creditCol := -1, -1, -1
	for col, cell := range sheet[0] {
		if cell.Kind != CellText {
			continue
		}
		switch NormalizeText(cell.Text) {
		case NormalizeText(ledgerDateColumn):
			dateCol = col
		case NormalizeText(ledgerDebitColumn):
			debitCol = col
		case NormalizeText(ledgerCreditColumn):
			creditCol = col
		}
	}
	if dateCol < 0 {
		return nil, NewExtractionError(filepath.Base(path), ErrMissingDateColumn)
	}

	entries := make([]ledgerEntry, 0, len(sheet)-1)
	for idx := 1; idx < len(sheet); idx++ {
		row := sheet[idx]

		date := ParseCellDate(CellAt(row, dateCol))
		if date == nil {
			// Filas sin fecha válida se descartan, igual que el resto
			// de los reportes del sistema de origen.
			continue
		}

		debit, err := MustNumber(CellAt(row, debitCol))
		if err != nil {
			return nil, NewExtractionError(filepath.Base(path), errors.Wrapf(err, "fila %d, columna %s", idx+1, ledgerDebitColumn))
		}

		credit, err := MustNumber(CellAt(row, creditCol))
		if err != nil {
			return nil, NewExtractionError(filepath.Base(path), errors.Wrapf(err, "fila %d, columna %s", idx+1, ledgerCreditColumn))
		}

		entries = append(entries, ledgerEntry{
			Date:   date.Truncate(24 * time.Hour),
			Debit:  debit,
			Credit: credit,
		})
	}

	return entries, nil
}

// buildDailySummary agrupa los movimientos por día y calcula el flujo
// neto (haber - debe) y el acumulado en orden cronológico.
func buildDailySummary(entries []ledgerEntry) []*domain.LedgerDay {
	byDay := make(map[time.Time]*domain.LedgerDay)
	for _, entry := range entries {
		day, ok := byDay[entry.Date]
		if !ok {
			day = &domain.LedgerDay{Date: entry.Date}
			byDay[entry.Date] = day
		}
		day.Debit += entry.Debit
		day.Credit += entry.Credit
	}

	days := make([]*domain.LedgerDay, 0, len(byDay))
	for _, day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	accumulated := 0.0
	for _, day := range days {
		day.NetFlow = day.Credit - day.Debit
		accumulated += day.NetFlow
		day.Accumulated = accumulated
	}

	return days
}

// ListExtracts devuelve los Excel de la carpeta ordenados por fecha de
// modificación descendente.
func ListExtracts(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xls*"))
	if err != nil {
		return nil, errors.Wrapf(err, "no se pudo listar %s", dir)
	}

	type fileInfo struct {
		path  string
		mtime time.Time
	}

	infos := make([]fileInfo, 0, len(matches))
	for _, match := range matches {
		stat, err := os.Stat(match)
		if err != nil {
			continue
		}
		infos = append(infos, fileInfo{path: match, mtime: stat.ModTime()})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].mtime.After(infos[j].mtime)
	})

	files := make([]string, len(infos))
	for i, info := range infos {
		files[i] = info.path
	}

	return files, nil
}
