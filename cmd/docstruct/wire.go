package main

import (
	"errors"
	"fmt"

	configfile "github.com/custodia-labs/docstruct/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docstruct/internal/adapters/driven/notify/kafka"
	"github.com/custodia-labs/docstruct/internal/adapters/driven/objectstore/minio"
	artifactfile "github.com/custodia-labs/docstruct/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docstruct/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docstruct/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docstruct/internal/adapters/driven/workspace"
	"github.com/custodia-labs/docstruct/internal/adapters/driving/cli"
	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/core/services"
	"github.com/custodia-labs/docstruct/internal/extractor"
	"github.com/custodia-labs/docstruct/internal/logger"
	"github.com/custodia-labs/docstruct/internal/schemas"
	"github.com/custodia-labs/docstruct/internal/stages"
)

// bootstrap wires the adapters and services from the configuration file.
// Invalid settings leave only the settings service configured so that
// `docstruct settings` can still be used to repair them.
func bootstrap(opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := openConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	svc := &cli.Services{Settings: settingsService}

	if err := settingsService.Validate(); err != nil {
		logger.Warn("configuration is invalid: %v", err)
		return svc, nil, nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}
	}

	if err := wire(settings, svc, &closers); err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func openConfig(path string) (*configfile.ConfigStore, error) {
	if path != "" {
		return configfile.NewConfigStoreFromFile(path)
	}
	return configfile.NewConfigStore("")
}

func wire(settings *domain.Settings, svc *cli.Services, closers *[]func() error) error {
	ws := workspace.New(settings.Workspace.Root, settings.Workspace.PDFStore)

	artifacts, err := artifactfile.NewArtifactStore(settings.Output.Dir)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	runs, err := processingLog(settings.Storage, closers)
	if err != nil {
		return err
	}

	registry := stages.NewRegistry()
	stages.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(settings.Pipeline)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	opts := []services.StructureOption{
		services.WithProcessingLog(runs),
		services.WithSkipExisting(settings.Batch.SkipExisting),
	}
	if settings.Kafka.Enabled {
		notifier, err := kafka.New(settings.Kafka.Brokers, settings.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		*closers = append(*closers, notifier.Close)
		opts = append(opts, services.WithNotifier(notifier))
	}

	structurer := services.NewStructureService(
		ws,
		schemas.NewDefaultRegistry(),
		extractor.New(),
		pipeline,
		artifacts,
		opts...,
	)

	svc.Structurer = structurer
	svc.Batch = services.NewBatchService(structurer, settings.Batch.Workers, settings.Batch.RatePerSecond)
	svc.WorkspaceRoot = ws.Root()
	svc.NewWatcher = func(onRun func(string, []driving.StageResult, error)) driving.WorkspaceWatcher {
		return services.NewWatcher(ws.Root(), structurer, services.WithWatchCallback(onRun))
	}

	if settings.Minio.Enabled {
		mirror, err := minio.New(minio.Config{
			Endpoint:  settings.Minio.Endpoint,
			AccessKey: settings.Minio.AccessKey,
			SecretKey: settings.Minio.SecretKey,
			Bucket:    settings.Minio.Bucket,
			UseSSL:    settings.Minio.UseSSL,
			Prefix:    settings.Minio.Prefix,
		})
		if err != nil {
			return fmt.Errorf("connecting to object storage: %w", err)
		}
		svc.Fetcher = services.NewMirrorService(mirror, ws)
	}

	return nil
}

func processingLog(cfg domain.StorageSettings, closers *[]func() error) (driven.ProcessingLog, error) {
	switch cfg.ProcessingLog {
	case domain.ProcessingLogMemory:
		return memory.NewProcessingLog(), nil
	case domain.ProcessingLogSQLite:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening processing log: %w", err)
		}
		*closers = append(*closers, store.Close)
		return store.ProcessingLog(), nil
	default:
		return nil, errors.New("unknown processing log backend: " + string(cfg.ProcessingLog))
	}
}
