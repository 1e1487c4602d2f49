package usecase

import (
	"context"
	"errors"
	"time"

	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	"github.com/dennis-nst/no-lose/validations"
	"github.com/sirupsen/logrus"
)

type cloudService struct {
	client           domainCloud.ICloudClient
	contactRepo      domainChat.IContactRepository
	messageRepo      domainChat.IMessageRepository
	conversationRepo domainChat.IConversationRepository
}

func NewCloudService(
	client domainCloud.ICloudClient,
	contactRepo domainChat.IContactRepository,
	messageRepo domainChat.IMessageRepository,
	conversationRepo domainChat.IConversationRepository,
) domainCloud.ICloudUsecase {
	return &cloudService{
		client:           client,
		contactRepo:      contactRepo,
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
	}
}

func (service *cloudService) VerifyConnection(ctx context.Context) (map[string]any, error) {
	return service.client.VerifyToken(ctx)
}

func (service *cloudService) Profile(ctx context.Context) (map[string]any, error) {
	return service.client.BusinessProfile(ctx)
}

func (service *cloudService) PhoneNumbers(ctx context.Context) (map[string]any, error) {
	return service.client.PhoneNumbers(ctx)
}

func (service *cloudService) Templates(ctx context.Context) (map[string]any, error) {
	return service.client.MessageTemplates(ctx)
}

func (service *cloudService) Media(ctx context.Context, mediaID string) (domainCloud.MediaInfo, error) {
	return service.client.DownloadMedia(ctx, mediaID)
}

// SendText sends via the Cloud API and records the outbound message so
// delivery receipts arriving on the webhook can update its status.
func (service *cloudService) SendText(ctx context.Context, request domainCloud.SendTextRequest) (domainCloud.SendResult, error) {
	if err := validations.ValidateCloudSendText(ctx, request); err != nil {
		return domainCloud.SendResult{}, err
	}

	raw, err := service.client.SendText(ctx, request.To, request.Text)
	if err != nil {
		return domainCloud.SendResult{}, err
	}

	result := domainCloud.SendResult{
		MessageID: extractCloudMessageID(raw),
		Raw:       raw,
	}

	if err := service.recordOutbound(ctx, request, result.MessageID); err != nil {
		// Delivery succeeded; a bookkeeping failure must not fail the send.
		logrus.Warnf("Failed to record outbound cloud message %s: %v", result.MessageID, err)
	}
	return result, nil
}

func (service *cloudService) recordOutbound(ctx context.Context, request domainCloud.SendTextRequest, messageID string) error {
	contact, err := service.contactRepo.GetByWaID(ctx, request.To)
	if errors.Is(err, domainChat.ErrContactNotFound) {
		contact = &domainChat.Contact{WaID: request.To}
		err = service.contactRepo.Create(ctx, contact)
	}
	if err != nil {
		return err
	}

	conversation, err := service.conversationRepo.GetActiveByContact(ctx, contact.ID)
	if errors.Is(err, domainChat.ErrConversationNotFound) {
		conversation = &domainChat.Conversation{ContactID: contact.ID}
		err = service.conversationRepo.Create(ctx, conversation)
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	message := &domainChat.Message{
		WaMessageID:    messageID,
		ContactID:      contact.ID,
		ConversationID: &conversation.ID,
		Source:         domainChat.SourceCloudAPI,
		Type:           "text",
		Content:        request.Text,
		IsOutbound:     true,
		Status:         domainChat.MessageStatusSent,
		Timestamp:      now,
	}
	if err := service.messageRepo.Create(ctx, message); err != nil && !errors.Is(err, domainChat.ErrDuplicateMessage) {
		return err
	}
	return service.conversationRepo.TouchLastMessage(ctx, conversation.ID, now)
}

// extractCloudMessageID digs messages[0].id out of the Graph API response.
func extractCloudMessageID(raw map[string]any) string {
	messages, ok := raw["messages"].([]any)
	if !ok || len(messages) == 0 {
		return ""
	}
	first, ok := messages[0].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := first["id"].(string)
	return id
}
