package rest

import (
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Sync struct {
	Service domainChat.IChatUsecase
}

func InitRestSync(app fiber.Router, service domainChat.IChatUsecase) Sync {
	rest := Sync{Service: service}
	app.Post("/bridge/sync/contacts", rest.SyncContacts)
	app.Post("/bridge/sync/chats", rest.SyncChats)
	app.Post("/bridge/sync/messages/:contactID", rest.SyncMessages)

	return rest
}

func (handler *Sync) SyncContacts(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	result, err := handler.Service.SyncContacts(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}

func (handler *Sync) SyncChats(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	chats, err := handler.Service.SyncChats(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chat list",
		Results: chats,
	})
}

func (handler *Sync) SyncMessages(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)
	contactID, err := c.ParamsInt("contactID")
	if err != nil || contactID <= 0 {
		utils.PanicIfNeeded(errInvalidContactID)
	}

	result, err := handler.Service.SyncMessages(c.UserContext(), userID, uint(contactID), queryInt(c, "limit", 30))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}
