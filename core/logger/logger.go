package logger

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger based on the configuration.
func New(cfg *Config) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil && cfg.Level != "" {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}

// WithRayID returns a logger with the ray_id field set from the Fiber context.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	rid := c.Locals("ray_id")
	if str, ok := rid.(string); ok && str != "" {
		return l.With(zap.String("ray_id", str))
	}
	return l
}

// ForTeacher scopes a logger to a single import run.
func ForTeacher(l *zap.Logger, email, importID string) *zap.Logger {
	return l.With(zap.String("teacher", email), zap.String("import_id", importID))
}
