package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderName carries the API key.
const HeaderName = "X-API-Key"

// Config holds the auth middleware settings.
type Config struct {
	// ApiKey is the expected key. Empty disables the check.
	ApiKey string
	// Skip lists paths served without a key.
	Skip []string
}

// New returns a middleware that rejects requests without the configured API key.
func New(cfg Config) fiber.Handler {
	skip := make(map[string]bool, len(cfg.Skip))
	for _, p := range cfg.Skip {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" || skip[c.Path()] {
			return c.Next()
		}

		key := c.Get(HeaderName)
		if key == "" {
			key = c.Query("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
