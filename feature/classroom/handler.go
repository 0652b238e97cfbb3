package classroom

import (
	"bytes"
	"errors"

	"classroom-sync/core/lock"
	"classroom-sync/core/logger"
	"classroom-sync/feature/classroom/store"
	"classroom-sync/feature/snapshot"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for classroom imports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the classroom routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/classroom")
	group.Post("/import", h.HandleImport)
	group.Post("/import/:email/latest", h.HandleImportLatest)
	group.Post("/preview", h.HandlePreview)
	group.Get("/teachers/:email/stats", h.HandleStats)
	group.Get("/submissions/:id/history", h.HandleHistory)
	group.Post("/submissions/:id/grades", h.HandleGrade)
}

// HandleImport imports a snapshot posted as the request body.
// @Summary Import Snapshot
// @Description Reconcile a teacher's classroom snapshot into the database.
// @Tags classroom
// @Accept json
// @Produce json
// @Success 200 {object} importer.Result "Import Result"
// @Failure 409 {object} importer.Result "Teacher is being imported"
// @Failure 422 {object} map[string]any "Invalid Snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /classroom/import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	snap, err := h.service.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return h.fail(c, l, "Snapshot rejected", err)
	}

	result, err := h.service.Import(c.UserContext(), snap)
	if err != nil {
		l.Warn("Import aborted", zap.String("import_id", result.ImportID), zap.Error(err))
		return c.Status(statusFor(err)).JSON(result)
	}
	return c.JSON(result)
}

// HandleImportLatest re-imports the newest archived snapshot of a teacher.
// @Summary Import Latest Archived Snapshot
// @Tags classroom
// @Produce json
// @Param email path string true "Teacher email"
// @Success 200 {object} importer.Result "Import Result"
// @Failure 404 {object} map[string]string "No archived snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /classroom/import/{email}/latest [post]
func (h *Handler) HandleImportLatest(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.ImportLatest(c.UserContext(), c.Params("email"))
	if err != nil {
		if result != nil {
			l.Warn("Import aborted", zap.String("import_id", result.ImportID), zap.Error(err))
			return c.Status(statusFor(err)).JSON(result)
		}
		return h.fail(c, l, "Latest snapshot import failed", err)
	}
	return c.JSON(result)
}

// HandlePreview reports what an import would change without writing.
// @Summary Preview Import
// @Tags classroom
// @Accept json
// @Produce json
// @Success 200 {object} diff.Result "Preview"
// @Failure 422 {object} map[string]any "Invalid Snapshot"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /classroom/preview [post]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	snap, err := h.service.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return h.fail(c, l, "Snapshot rejected", err)
	}

	preview, err := h.service.Preview(c.UserContext(), snap)
	if err != nil {
		return h.fail(c, l, "Preview failed", err)
	}
	return c.JSON(preview)
}

// HandleStats returns a teacher's aggregate statistics.
// @Summary Teacher Statistics
// @Tags classroom
// @Produce json
// @Param email path string true "Teacher email"
// @Success 200 {object} stats.Stats "Statistics"
// @Failure 404 {object} map[string]string "Unknown teacher"
// @Router /classroom/teachers/{email}/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.Stats(c.UserContext(), c.Params("email"))
	if err != nil {
		return h.fail(c, l, "Stats failed", err)
	}
	return c.JSON(result)
}

// HandleHistory returns every version of a submission with its grades.
// @Summary Submission History
// @Tags classroom
// @Produce json
// @Param id path string true "Submission version ID"
// @Success 200 {array} store.VersionRecord "Versions, newest first"
// @Failure 404 {object} map[string]string "Unknown submission"
// @Router /classroom/submissions/{id}/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	history, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, l, "History failed", err)
	}
	return c.JSON(history)
}

// HandleGrade records a grade on the latest version of a submission.
// @Summary Grade Submission
// @Tags classroom
// @Accept json
// @Produce json
// @Param id path string true "Submission version ID"
// @Param grade body snapshot.Grade true "Grade"
// @Success 201 {object} models.Grade "Recorded grade"
// @Failure 404 {object} map[string]string "Unknown submission"
// @Failure 409 {object} map[string]string "Not the latest version"
// @Failure 422 {object} map[string]any "Invalid grade"
// @Router /classroom/submissions/{id}/grades [post]
func (h *Handler) HandleGrade(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var grade snapshot.Grade
	if err := c.BodyParser(&grade); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	row, err := h.service.GradeSubmission(c.UserContext(), c.Params("id"), grade)
	if err != nil {
		return h.fail(c, l, "Grade rejected", err)
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Info(msg, zap.Int("status", status), zap.Error(err))
	}

	var ve *snapshot.ValidationError
	if errors.As(err, &ve) {
		return c.Status(status).JSON(fiber.Map{"error": "invalid snapshot", "problems": ve.Problems})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var ve *snapshot.ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrNotLatest), errors.Is(err, lock.ErrNotAcquired):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
