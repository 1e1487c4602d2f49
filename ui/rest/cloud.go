package rest

import (
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Cloud struct {
	Service domainCloud.ICloudUsecase
}

func InitRestCloud(app fiber.Router, service domainCloud.ICloudUsecase) Cloud {
	rest := Cloud{Service: service}
	app.Get("/cloud/verify", rest.Verify)
	app.Get("/cloud/profile", rest.Profile)
	app.Get("/cloud/phone-numbers", rest.PhoneNumbers)
	app.Get("/cloud/templates", rest.Templates)
	app.Get("/cloud/media/:mediaID", rest.Media)
	app.Post("/cloud/send/text", rest.SendText)

	return rest
}

func (handler *Cloud) Verify(c *fiber.Ctx) error {
	result, err := handler.Service.VerifyConnection(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cloud API token valid",
		Results: result,
	})
}

func (handler *Cloud) Profile(c *fiber.Ctx) error {
	result, err := handler.Service.Profile(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Business profile",
		Results: result,
	})
}

func (handler *Cloud) PhoneNumbers(c *fiber.Ctx) error {
	result, err := handler.Service.PhoneNumbers(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Phone numbers",
		Results: result,
	})
}

func (handler *Cloud) Templates(c *fiber.Ctx) error {
	result, err := handler.Service.Templates(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message templates",
		Results: result,
	})
}

func (handler *Cloud) Media(c *fiber.Ctx) error {
	mediaID := c.Params("mediaID")
	if mediaID == "" {
		utils.PanicIfNeeded(pkgError.ValidationError("Missing media id"))
	}

	result, err := handler.Service.Media(c.UserContext(), mediaID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Media info",
		Results: result,
	})
}

func (handler *Cloud) SendText(c *fiber.Ctx) error {
	var request domainCloud.SendTextRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	result, err := handler.Service.SendText(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message sent",
		Results: result,
	})
}
