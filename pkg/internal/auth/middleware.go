package auth

import (
	"strings"

	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Reader is installed at boot; when it stays nil every request is treated
// as anonymous and the read-only surface keeps working.
var Reader *TokenReader

// ContextMiddleware resolves an optional bearer token into the verified
// account and stashes it in locals. Invalid tokens degrade to anonymous
// instead of failing the request; the Ensure helpers do the rejecting.
func ContextMiddleware(c *fiber.Ctx) error {
	if Reader == nil {
		return c.Next()
	}

	token := pickToken(c)
	if len(token) == 0 {
		return c.Next()
	}

	account, err := Reader.ReadToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Unable to read bearer token, continuing as anonymous...")
		return c.Next()
	}

	if account, err = services.SyncAccount(account); err != nil {
		log.Warn().Err(err).Msg("An error occurred when syncing account record...")
		return c.Next()
	}

	c.Locals("user", account)
	return c.Next()
}

func pickToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return header[len("Bearer "):]
	}
	return c.Query("tk")
}

func EnsureAuthenticated(c *fiber.Ctx) error {
	if _, ok := c.Locals("user").(models.Account); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "you need to be authenticated to do this")
	}
	return nil
}

func EnsureOrganizer(c *fiber.Ctx) error {
	if err := EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)
	if !user.IsOrganizer() {
		return fiber.NewError(fiber.StatusForbidden, "you need to be an organizer to do this")
	}
	return nil
}
