package api

import (
	"github.com/eventhost/pulse/pkg/internal/auth"
	"github.com/eventhost/pulse/pkg/internal/http/exts"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listAnnouncements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 200)

	announcements, err := services.ListAnnouncements(limit)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(announcements)
}

func createAnnouncement(c *fiber.Ctx) error {
	if err := auth.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	var data struct {
		Content string `json:"content" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	announcement, err := services.NewAnnouncement(user, data.Content)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(announcement)
}
