package rest

import (
	"github.com/dennis-nst/no-lose/core/config"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Webhook struct {
	BridgeService domainBridge.IWebhookUsecase
	ChatService   domainChat.IChatUsecase
	CloudConfig   config.CloudAPIConfig
}

func InitRestWebhook(app fiber.Router, bridgeService domainBridge.IWebhookUsecase, chatService domainChat.IChatUsecase, cloudCfg config.CloudAPIConfig) Webhook {
	rest := Webhook{BridgeService: bridgeService, ChatService: chatService, CloudConfig: cloudCfg}
	app.Post("/webhook/bridge", rest.ReceiveBridge)
	app.Get("/webhook", rest.VerifyCloud)
	app.Post("/webhook", rest.ReceiveCloud)

	return rest
}

// ReceiveBridge ingests self-hosted bridge events. It always acknowledges
// with 200 so the bridge does not retry; failures are logged server side.
func (handler *Webhook) ReceiveBridge(c *fiber.Ctx) error {
	var event domainBridge.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		logrus.Warnf("Malformed bridge webhook body: %v", err)
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "IGNORED",
			Message: "Malformed event ignored",
		})
	}

	if err := handler.BridgeService.HandleEvent(c.UserContext(), event); err != nil {
		logrus.Errorf("Failed to handle bridge event %s: %v", event.Event, err)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Event received",
	})
}

// VerifyCloud answers the Cloud API webhook subscription handshake.
func (handler *Webhook) VerifyCloud(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == handler.CloudConfig.VerifyToken {
		return c.SendString(challenge)
	}
	return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
		Status:  403,
		Code:    "FORBIDDEN",
		Message: "Verification failed",
	})
}

// ReceiveCloud ingests Cloud API webhook deliveries. When an app secret is
// configured the payload signature is enforced; without one deliveries are
// accepted unsigned.
func (handler *Webhook) ReceiveCloud(c *fiber.Ctx) error {
	if handler.CloudConfig.AppSecret != "" {
		signature := c.Get("X-Hub-Signature-256")
		if !utils.ValidateSignature(c.Body(), []byte(handler.CloudConfig.AppSecret), signature) {
			return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
				Status:  403,
				Code:    "FORBIDDEN",
				Message: "Invalid payload signature",
			})
		}
	}

	var payload domainCloud.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		logrus.Warnf("Malformed cloud webhook body: %v", err)
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "IGNORED",
			Message: "Malformed payload ignored",
		})
	}

	if _, err := handler.ChatService.SaveCloudMessage(c.UserContext(), payload); err != nil {
		logrus.Errorf("Failed to save cloud webhook payload: %v", err)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Event received",
	})
}
