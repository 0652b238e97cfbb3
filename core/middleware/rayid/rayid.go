package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// HeaderName carries the ray id on requests and responses.
	HeaderName = "X-Ray-ID"
	// LocalsKey is where the ray id is stored on the Fiber context.
	LocalsKey = "ray_id"
)

// New returns a middleware that assigns every request a ray id. An incoming
// X-Ray-ID header is kept so callers can correlate their own logs.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}
