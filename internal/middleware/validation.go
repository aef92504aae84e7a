package middleware

import (
	"strings"

	"reel-quizzer/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// RequireQuery rejects requests where any of the named query parameters is
// missing or blank.
func RequireQuery(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			if strings.TrimSpace(c.Query(name)) == "" {
				return domain.NewInvalidInputError("Missing " + name + " query param").WithContext("param", name)
			}
		}
		return c.Next()
	}
}
