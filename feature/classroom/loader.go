package classroom

import (
	"classroom-sync/core/events"
	"classroom-sync/core/lock"
	"classroom-sync/core/storage"
	"classroom-sync/feature/classroom/importer"
	"classroom-sync/feature/classroom/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Classroom feature.
func NewFeature(st *store.Store, imp *importer.Importer, locker lock.Locker, publisher events.Publisher, client storage.Client, logger *zap.Logger, opts Options) *Feature {
	svc := NewService(st, imp, locker, publisher, client, logger, opts)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the feature's service to commands.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "classroom"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
