package integrity

import (
	"classroom-sync/core/logger"
	"classroom-sync/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/chains", h.HandleChainCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Structure, Schema, Chains).
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} Report "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := h.service.RunAll(c.UserContext())
	if !report.Healthy {
		l.Warn("Integrity checks found problems")
	}
	return c.JSON(report)
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Structure
// @Description Checks if the snapshot folders exist in the storage bucket. Optionally fixes missing folders.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	missing, err := h.service.CheckStructure(c.UserContext())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.UserContext(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix structure",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleSchemaCheck checks database schema integrity.
// @Summary Check Database Schema
// @Description Checks if the database schema matches the classroom models.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Check Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}

// HandleChainCheck audits submission version chains.
// @Summary Check Version Chains
// @Description Verifies that every submission chain has exactly one latest version, gapless version numbers and no orphan grades.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.ChainReport "Chain Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/chains [get]
func (h *Handler) HandleChainCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckChains(c.UserContext())
	if err != nil {
		l.Error("Chain check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !report.Healthy {
		l.Warn("Broken version chains detected",
			zap.Int("latest_issues", len(report.LatestIssues)),
			zap.Int("version_gaps", len(report.VersionGaps)),
			zap.Int("orphan_grades", len(report.OrphanGrades)))
	}
	return c.JSON(report)
}
