package main

import (
	"context"
	"time"

	"github.com/elcacique/ventas-core/infrastructure/database/sqlite"
	"github.com/elcacique/ventas-core/infrastructure/repository"
	"github.com/elcacique/ventas-core/internal/config"
	"github.com/elcacique/ventas-core/internal/domain"
	"github.com/elcacique/ventas-core/internal/excel"
	"github.com/elcacique/ventas-core/internal/usecases/authenticating"
	"github.com/elcacique/ventas-core/internal/usecases/importing"
	"github.com/elcacique/ventas-core/internal/usecases/reporting"
	"github.com/sirupsen/logrus"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("nivel de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := dbconn(ctx, cfg.Database)
	defer conn.Close()

	if err := sqlite.Migrate(ctx, conn); err != nil {
		logrus.WithError(err).Fatal("error al migrar el esquema")
	}

	periodRepo := repository.NewPeriodRepository(conn)
	aggregateRepo := repository.NewAggregateRepository(conn)
	auditRepo := repository.NewAuditRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	authenticator := authenticating.NewService(userRepo, cfg)
	if err := authenticator.EnsureDefaultAdmin(); err != nil {
		logrus.WithError(err).Fatal("error al inicializar usuarios")
	}

	extractor := excel.NewExtractor()
	extractor.Keyword = cfg.Importer.Keyword
	importer := importing.NewService(extractor, periodRepo)
	reporter := reporting.NewService(aggregateRepo)

	if cfg.Importer.Folder != "" {
		report, err := importer.ImportFolder(ctx, cfg.Importer.Folder, cfg.DefaultAdminUser)
		if err != nil {
			logrus.WithError(err).Fatal("error al importar la carpeta de ventas")
		}
		logrus.Infof("importación inicial: %d planillas ok, %d con error", len(report.Imported), len(report.Failed))
	}

	if cfg.Importer.LedgerFolder != "" {
		days, files, err := excel.NewLedgerExtractor().LoadFolder(cfg.Importer.LedgerFolder)
		if err != nil {
			logrus.WithError(err).Error("error al consolidar los extractos contables")
		} else {
			logrus.Infof("flujo contable consolidado: %d días a partir de %d extractos", len(days), len(files))
		}
	}

	logSummaries(reporter, aggregateRepo)
	logRecentActivity(auditRepo)
}

// logRecentActivity muestra las últimas acciones registradas sobre los
// períodos.
func logRecentActivity(auditRepo repository.AuditRepository) {
	entries, err := auditRepo.FetchAudit(domain.AuditFilter{Limit: 5})
	if err != nil {
		logrus.WithError(err).Error("error al consultar el log de auditoría")
		return
	}
	for _, entry := range entries {
		file := ""
		if entry.SourceFile != nil {
			file = *entry.SourceFile
		}
		logrus.Infof("auditoría: %s por %s (%s)", entry.Action, entry.Username, file)
	}
}

// logSummaries deja en el log un pantallazo del estado de la base:
// años cargados y reparto por proveedor del último año.
func logSummaries(reporter reporting.Reporter, aggregateRepo repository.AggregateRepository) {
	years, err := aggregateRepo.ListYears()
	if err != nil {
		logrus.WithError(err).Error("error al listar años")
		return
	}
	if len(years) == 0 {
		logrus.Info("la base no tiene ventas cargadas")
		return
	}

	// ListYears ordena descendente: el primero es el más reciente.
	lastYear := years[0]
	logrus.Infof("años con ventas: %v", years)

	shares, err := reporter.ProviderYearlySummary(lastYear, reporting.MetricAmount)
	if err != nil {
		logrus.WithError(err).Error("error al resumir proveedores")
		return
	}
	for _, share := range shares {
		logrus.Infof("%d · %s: %.2f (%.2f%%)", lastYear, share.Provider, share.TotalAmount, share.SharePercent)
	}
}

// configureLogger define el formato de los logs
func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// dbconn abre la base local y verifica que responda
func dbconn(ctx context.Context, dbConfig config.Database) *sqlite.Connection {
	conn, err := sqlite.NewConnection(ctx, dbConfig.Path)
	if err != nil {
		logrus.WithError(err).Fatal("error al abrir la base de datos")
	}

	logrus.Infof("base de datos abierta en %s", dbConfig.Path)
	return conn
}
