package integrity

import (
	"classroom-sync/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Integrity feature.
func NewFeature(client storage.Client, bucket string, folders []string, logger *zap.Logger, db *gorm.DB) *Feature {
	svc := NewService(client, bucket, folders, logger, db)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the feature's service to commands.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
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
