package cli

import (
	"context"
	"strings"

	"github.com/okian/octagon/internal/adapters/dataset"
	"github.com/okian/octagon/internal/adapters/model"
	service "github.com/okian/octagon/internal/app"
	"github.com/okian/octagon/internal/config"
	"github.com/okian/octagon/pkg/logger"
)

// Source maps the dataset settings of cfg to a reader.
func Source(cfg *config.Config) dataset.Source {
	if strings.EqualFold(cfg.DatasetSource, config.SourceSQL) {
		return dataset.SQLSource{
			Driver:        cfg.SQLDriver,
			DSN:           cfg.SQLDSN,
			FightersTable: cfg.FightersTable,
			BoutsTable:    cfg.BoutsTable,
		}
	}
	return dataset.CSVSource{FightersPath: cfg.FightersCSV, BoutsPath: cfg.BoutsCSV}
}

// ServiceOptions translates cfg into service options. The server and the
// command line build their service the same way.
func ServiceOptions(cfg *config.Config, log logger.Logger) []service.Option {
	return []service.Option{
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithRequestTimeout(cfg.RequestTimeout()),
		service.WithMaxSearchLimit(cfg.MaxSearchLimit),
		service.WithSource(Source(cfg)),
		service.WithModelFiles(
			model.Spec{Path: cfg.WinnerModel, SchemaPath: cfg.WinnerSchema},
			model.Spec{Path: cfg.SideAMethodModel, SchemaPath: cfg.SideAMethodSchema},
			model.Spec{Path: cfg.SideBMethodModel, SchemaPath: cfg.SideBMethodSchema},
		),
	}
}

// StartService is the default Opener: it loads data and models in process.
func StartService(ctx context.Context, cfg *config.Config) (Backend, func(), error) {
	svc := service.New(ServiceOptions(cfg, logger.Get().Named("service"))...)
	if err := svc.Start(ctx); err != nil {
		return nil, nil, err
	}
	return svc, svc.Stop, nil
}
