package api

import (
	"errors"

	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL)
	{
		api.Get("/health", getHealth)

		announcements := api.Group("/announcements")
		{
			announcements.Get("/", listAnnouncements)
			announcements.Post("/", createAnnouncement)
		}

		questions := api.Group("/questions")
		{
			questions.Get("/", listQuestions)
			questions.Post("/", createQuestion)
			questions.Post("/:questionId/answers", createAnswer)
		}

		polls := api.Group("/polls")
		{
			polls.Get("/", listPolls)
			polls.Post("/", createPoll)
			polls.Post("/:pollId/votes", votePoll)
			polls.Post("/:pollId/close", closePoll)
		}
	}
}

func getHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// remapDomainError turns the service taxonomy into HTTP statuses; the
// message survives so the UI can render it inline.
func remapDomainError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAuthorization):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrState):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
