package rest

import (
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Instance struct {
	Service domainInstance.IInstanceUsecase
}

func InitRestInstance(app fiber.Router, service domainInstance.IInstanceUsecase) Instance {
	rest := Instance{Service: service}
	app.Post("/bridge/instance/create", rest.Provision)
	app.Get("/bridge/instance/status", rest.Status)
	app.Get("/bridge/instance/qrcode", rest.QRCode)
	app.Delete("/bridge/instance/disconnect", rest.Disconnect)

	return rest
}

func (handler *Instance) Provision(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	response, err := handler.Service.Provision(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance provisioned",
		Results: response,
	})
}

func (handler *Instance) Status(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	response, err := handler.Service.RefreshStatus(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Connection status",
		Results: response,
	})
}

func (handler *Instance) QRCode(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	response, err := handler.Service.GetOrRefreshQR(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "QR code ready",
		Results: response,
	})
}

func (handler *Instance) Disconnect(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	err := handler.Service.Disconnect(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "WhatsApp disconnected",
	})
}
