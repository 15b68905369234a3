package importing

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/elcacique/ventas-core/infrastructure/repository"
	"github.com/elcacique/ventas-core/internal/excel"
	"github.com/elcacique/ventas-core/pkg/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Importer interface {
	ImportFile(ctx context.Context, path, createdBy string) (*FileResult, error)
	ImportFolder(ctx context.Context, dir, createdBy string) (*Report, error)
}

// FileResult es el resultado de importar una planilla.
type FileResult struct {
	File        string     `json:"file"`
	PeriodID    int        `json:"period_id,omitempty"`
	Records     int        `json:"records"`
	Provider    *string    `json:"provider,omitempty"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Report resume una corrida de importación de carpeta. Los archivos
// fallidos no frenan al resto.
type Report struct {
	CorrelationID string        `json:"correlation_id"`
	Folder        string        `json:"folder"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Imported      []*FileResult `json:"imported"`
	Failed        []*FileResult `json:"failed"`
}

type Service struct {
	extractor  *excel.Extractor
	periodRepo repository.PeriodRepository
}

func NewService(extractor *excel.Extractor, periodRepo repository.PeriodRepository) Importer {
	return &Service{
		extractor:  extractor,
		periodRepo: periodRepo,
	}
}

// ImportFile extrae la planilla y la persiste. Reimportar el mismo
// archivo reemplaza el período anterior en lugar de duplicarlo.
func (s *Service) ImportFile(ctx context.Context, path, createdBy string) (*FileResult, error) {
	logger := log.ForContext(ctx).WithField("file", filepath.Base(path))

	batch, err := s.extractor.Load(path)
	if err != nil {
		logger.WithError(err).Error("no se pudo extraer la planilla")
		return nil, err
	}

	stored, err := s.periodRepo.StoreBatch(ctx, batch, createdBy)
	if err != nil {
		logger.WithError(err).Error("no se pudo persistir el período")
		return nil, err
	}

	period, err := s.periodRepo.GetPeriodBySource(batch.SourceFile)
	if err != nil {
		logger.WithError(err).Error("no se pudo releer el período guardado")
		return nil, err
	}

	logger.WithField("records", stored).Infof("período %d importado", period.ID)

	return &FileResult{
		File:        batch.SourceFile,
		PeriodID:    period.ID,
		Records:     stored,
		Provider:    batch.Provider,
		PeriodStart: batch.PeriodStart,
		PeriodEnd:   batch.PeriodEnd,
	}, nil
}

// ImportFolder recorre los Excel de la carpeta y los importa uno por
// uno. Un archivo ilegible queda registrado en Failed y la corrida
// sigue; solo los errores de infraestructura abortan.
func (s *Service) ImportFolder(ctx context.Context, dir, createdBy string) (*Report, error) {
	ctx, correlationID := log.WithCorrelationID(ctx)
	logger := log.ForContext(ctx).WithField("folder", dir)

	files, err := excel.ListExtracts(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{
		CorrelationID: correlationID,
		Folder:        dir,
		StartedAt:     time.Now(),
		Imported:      make([]*FileResult, 0, len(files)),
		Failed:        make([]*FileResult, 0),
	}

	for _, file := range files {
		result, err := s.ImportFile(ctx, file, createdBy)
		if err != nil {
			if !excel.IsExtractionError(err) {
				// Error de base de datos: no tiene sentido seguir.
				return nil, err
			}
			report.Failed = append(report.Failed, &FileResult{
				File:  filepath.Base(file),
				Error: err.Error(),
			})
			continue
		}
		report.Imported = append(report.Imported, result)
	}

	report.FinishedAt = time.Now()
	logger.Infof("importación terminada: %d ok, %d con error", len(report.Imported), len(report.Failed))

	return report, nil
}

// WriteReport serializa el reporte de la corrida a un archivo JSON.
func WriteReport(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "no se pudo serializar el reporte")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "no se pudo escribir el reporte en %s", path)
	}

	return nil
}
