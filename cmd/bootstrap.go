package cmd

import (
	"context"
	"fmt"
	"time"

	"classroom-sync/core/config"
	"classroom-sync/core/database"
	"classroom-sync/core/events"
	"classroom-sync/core/lock"
	"classroom-sync/core/logger"
	"classroom-sync/core/metrics"
	"classroom-sync/core/storage"
	"classroom-sync/feature/classroom"
	"classroom-sync/feature/classroom/importer"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/integrity"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the dependencies shared by every command.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	store     *store.Store
	client    storage.Client
	locker    lock.Locker
	publisher events.Publisher
}

// bootstrap loads configuration and connects the database, storage, lock and event bus.
// Storage and the event bus are optional; the database is not.
func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}
	logg = logg.With(zap.String("driver", cfg.Database.Driver))

	rt := &runtime{cfg: cfg, logger: logg, db: db, store: store.New(db)}

	if client, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Snapshot storage disabled", zap.Error(err))
	} else {
		rt.client = client
	}

	rt.locker, err = lock.New(cfg.Redis, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to create import lock: %w", err)
	}

	rt.publisher, err = events.Connect(cfg.Events)
	if err != nil {
		logg.Warn("Event publishing disabled", zap.Error(err))
		rt.publisher = events.NopPublisher{}
	}

	return rt, nil
}

// migrate creates or updates the classroom tables.
func (rt *runtime) migrate(ctx context.Context) error {
	return rt.store.AutoMigrate(ctx)
}

func (rt *runtime) importer(recorder *metrics.Recorder) *importer.Importer {
	return importer.New(rt.store, rt.locker, rt.publisher, recorder, rt.logger, importer.OptionsFromConfig(rt.cfg.Import))
}

func (rt *runtime) classroom(recorder *metrics.Recorder) *classroom.Feature {
	return classroom.NewFeature(rt.store, rt.importer(recorder), rt.locker, rt.publisher, rt.client, rt.logger, classroom.Options{
		Bucket:   rt.cfg.Storage.Bucket,
		Prefix:   rt.cfg.Import.SnapshotPrefix,
		StatsTTL: time.Duration(rt.cfg.Import.StatsCacheSeconds) * time.Second,
	})
}

func (rt *runtime) integrity() *integrity.Feature {
	return integrity.NewFeature(rt.client, rt.cfg.Storage.Bucket, []string{rt.cfg.Import.SnapshotPrefix}, rt.logger, rt.db)
}

func (rt *runtime) close() {
	rt.publisher.Close()
	if sqlDB, err := rt.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rt.logger.Sync()
}
