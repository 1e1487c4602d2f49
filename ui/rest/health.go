package rest

import (
	domainHealth "github.com/dennis-nst/no-lose/domains/health"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service domainHealth.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service domainHealth.IHealthUsecase) Health {
	rest := Health{Service: service}
	app.Get("/health", rest.Check)

	return rest
}

func (handler *Health) Check(c *fiber.Ctx) error {
	status := handler.Service.Check(c.UserContext())

	code := 200
	if status.Status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(utils.ResponseData{
		Status:  code,
		Code:    "SUCCESS",
		Message: "Health status",
		Results: status,
	})
}
