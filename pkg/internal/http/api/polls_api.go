package api

import (
	"github.com/eventhost/pulse/pkg/internal/auth"
	"github.com/eventhost/pulse/pkg/internal/http/exts"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listPolls(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	var viewer *models.Account
	if user, ok := c.Locals("user").(models.Account); ok {
		viewer = &user
	}

	polls, err := services.ListPolls(viewer, limit)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(polls)
}

func createPoll(c *fiber.Ctx) error {
	if err := auth.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	var data struct {
		Question string   `json:"question" validate:"required"`
		Options  []string `json:"options" validate:"required,min=2"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll, err := services.NewPoll(user, data.Question, data.Options)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(poll.Summary())
}

func votePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := auth.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	var data struct {
		OptionIndex *int `json:"option_index" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	poll, ownVote, err := services.VotePoll(user, uint(pollId), *data.OptionIndex)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(fiber.Map{
		"poll":     poll.Summary(),
		"own_vote": ownVote,
	})
}

func closePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	if err := auth.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := c.Locals("user").(models.Account)

	poll, err := services.ClosePoll(user, uint(pollId))
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(poll.Summary())
}
