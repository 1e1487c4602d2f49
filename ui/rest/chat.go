package rest

import (
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Chat struct {
	Service domainChat.IChatUsecase
}

func InitRestChat(app fiber.Router, service domainChat.IChatUsecase) Chat {
	rest := Chat{Service: service}
	app.Post("/bridge/send/text", rest.SendText)
	app.Get("/bridge/contacts", rest.ListContacts)
	app.Get("/bridge/messages/:contactID", rest.ListMessages)
	app.Get("/conversations", rest.ListConversations)
	app.Get("/stats", rest.Stats)

	return rest
}

func (handler *Chat) ListContacts(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	contacts, err := handler.Service.ListContacts(c.UserContext(), userID, queryInt(c, "offset", 0), queryInt(c, "limit", 100))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact list",
		Results: contacts,
	})
}

func (handler *Chat) ListMessages(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)
	contactID, err := c.ParamsInt("contactID")
	if err != nil || contactID <= 0 {
		utils.PanicIfNeeded(errInvalidContactID)
	}

	messages, contact, err := handler.Service.ListMessages(c.UserContext(), userID, uint(contactID), queryInt(c, "offset", 0), queryInt(c, "limit", 50))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message list",
		Results: map[string]any{
			"contact":  contact,
			"messages": messages,
		},
	})
}

func (handler *Chat) ListConversations(c *fiber.Ctx) error {
	conversations, err := handler.Service.ListConversations(c.UserContext(), queryInt(c, "offset", 0), queryInt(c, "limit", 100))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation list",
		Results: conversations,
	})
}

func (handler *Chat) Stats(c *fiber.Ctx) error {
	stats, err := handler.Service.Stats(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message stats",
		Results: stats,
	})
}

func (handler *Chat) SendText(c *fiber.Ctx) error {
	userID := userIDFromCtx(c)

	var request domainChat.SendTextRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := handler.Service.SendText(c.UserContext(), userID, request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message sent",
		Results: response,
	})
}
