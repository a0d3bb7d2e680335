package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/cardvault/cardledger/internal/cli"
	"github.com/cardvault/cardledger/internal/config"
	"github.com/cardvault/cardledger/internal/db"
	"github.com/cardvault/cardledger/internal/metrics"
	"github.com/cardvault/cardledger/internal/repo"
	"github.com/cardvault/cardledger/pkg/logger"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	flag.StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "Store driver (sqlite or postgres)")
	flag.StringVar(&cfg.DBDSN, "db", cfg.DBDSN, "Path to the SQLite file, or a Postgres DSN")
	flag.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this textfile after each command")
	flag.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO 4217 code used to display amounts")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	plain := flag.Bool("plain", false, "Print raw markdown instead of rendering it")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	var (
		log      *zap.Logger
		database *db.DB
	)
	m := metrics.New()
	app := &cli.App{
		Metrics: m,
		Open: func() (*repo.LedgerRepository, error) {
			log = logger.NewLogger(cfg.ServiceName, cfg.LogLevel)

			var err error
			database, err = db.Connect(db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, BusyTimeout: cfg.BusyTimeout})
			if err != nil {
				log.Error("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
				return nil, err
			}

			// Run migrations
			if err := db.RunMigrations(database); err != nil {
				log.Error("Failed to run migrations", zap.Error(err))
				return nil, err
			}

			return repo.NewLedgerRepository(database, log, repo.WithRecorder(m)), nil
		},
	}
	cli.Register(commander, app)

	flag.Parse()
	app.MetricsFile = cfg.MetricsFile
	app.Currency = cfg.Currency
	app.Plain = *plain

	ctx := context.Background()
	status := commander.Execute(ctx)

	if err := app.ExportMetrics(ctx); err != nil && log != nil {
		log.Warn("Failed to write metrics textfile", zap.String("path", cfg.MetricsFile), zap.Error(err))
	}
	if database != nil {
		database.Close()
	}
	if log != nil {
		log.Sync()
	}
	os.Exit(int(status))
}
