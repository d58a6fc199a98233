package api

import (
	"github.com/eventhost/pulse/pkg/internal/auth"
	"github.com/eventhost/pulse/pkg/internal/http/exts"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listQuestions(c *fiber.Ctx) error {
	questions, err := services.ListQuestions()
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(questions)
}

func createQuestion(c *fiber.Ctx) error {
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

	question, err := services.AskQuestion(user, data.Content)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(question)
}

func createAnswer(c *fiber.Ctx) error {
	questionId, _ := c.ParamsInt("questionId")

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

	question, err := services.AnswerQuestion(user, uint(questionId), data.Content)
	if err != nil {
		return remapDomainError(err)
	}

	return c.JSON(question)
}
