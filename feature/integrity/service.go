package integrity

import (
	"context"
	"errors"

	"classroom-sync/core/storage"
	"classroom-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errNoStorage = errors.New("storage is not configured")

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	bucket  string
	folders []string
	logger  *zap.Logger
	db      *gorm.DB
}

// NewService creates a new integrity service. folders are the storage
// prefixes that must exist in the bucket.
func NewService(client storage.Client, bucket string, folders []string, logger *zap.Logger, db *gorm.DB) *Service {
	return &Service{
		client:  client,
		bucket:  bucket,
		folders: folders,
		logger:  logger,
		db:      db,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, errNoStorage
	}
	return checks.CheckStructure(ctx, s.client, s.bucket, s.folders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return errNoStorage
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema compares the live schema with the classroom models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db)
}

// CheckChains audits submission version chains and grade ownership.
func (s *Service) CheckChains(ctx context.Context) (*checks.ChainReport, error) {
	return checks.CheckChains(ctx, s.db)
}

// Report combines every check. A failing check is reported in place, never returned.
type Report struct {
	Structure map[string]any `json:"structure"`
	Schema    any            `json:"schema"`
	Chains    any            `json:"chains"`
	Healthy   bool           `json:"healthy"`
}

// RunAll performs every check.
func (s *Service) RunAll(ctx context.Context) *Report {
	report := &Report{Healthy: true}

	if missing, err := s.CheckStructure(ctx); err != nil {
		report.Structure = map[string]any{"status": "error", "error": err.Error()}
		report.Healthy = false
	} else {
		report.Structure = map[string]any{"status": "ok", "missing": missing}
		report.Healthy = report.Healthy && len(missing) == 0
	}

	if schema, err := s.CheckSchema(); err != nil {
		report.Schema = map[string]any{"status": "error", "error": err.Error()}
		report.Healthy = false
	} else {
		report.Schema = schema
		report.Healthy = report.Healthy && schema.Matched
	}

	if chains, err := s.CheckChains(ctx); err != nil {
		report.Chains = map[string]any{"status": "error", "error": err.Error()}
		report.Healthy = false
	} else {
		report.Chains = chains
		report.Healthy = report.Healthy && chains.Healthy
	}

	return report
}
