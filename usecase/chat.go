package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dennis-nst/no-lose/core/config"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/dennis-nst/no-lose/validations"
	"github.com/sirupsen/logrus"
)

type chatService struct {
	instanceRepo     domainInstance.IInstanceRepository
	contactRepo      domainChat.IContactRepository
	messageRepo      domainChat.IMessageRepository
	conversationRepo domainChat.IConversationRepository
	bridgeClient     domainBridge.IBridgeClient
	groupSuffix      string
}

func NewChatService(
	instanceRepo domainInstance.IInstanceRepository,
	contactRepo domainChat.IContactRepository,
	messageRepo domainChat.IMessageRepository,
	conversationRepo domainChat.IConversationRepository,
	bridgeClient domainBridge.IBridgeClient,
	waCfg config.WhatsappConfig,
) domainChat.IChatUsecase {
	return &chatService{
		instanceRepo:     instanceRepo,
		contactRepo:      contactRepo,
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		bridgeClient:     bridgeClient,
		groupSuffix:      waCfg.TypeGroup,
	}
}

func (service *chatService) isGroupJid(remoteJid string) bool {
	return strings.HasSuffix(remoteJid, service.groupSuffix)
}

// phoneFromJid strips the domain suffix from a routing identifier
// (e.g. "1234567890@s.whatsapp.net" -> "1234567890").
func phoneFromJid(remoteJid string) string {
	if idx := strings.Index(remoteJid, "@"); idx >= 0 {
		return remoteJid[:idx]
	}
	return remoteJid
}

// connectedInstance loads the user's instance and requires it connected.
func (service *chatService) connectedInstance(ctx context.Context, userID uint) (*domainInstance.Instance, error) {
	inst, err := service.instanceRepo.GetByUserID(ctx, userID)
	if err != nil || inst.Status != domainInstance.StatusConnected {
		return nil, pkgError.ValidationError("WhatsApp not connected. Please scan QR code first.")
	}
	return inst, nil
}

// ==================== Bridge Reconciliation ====================

// ReconcileMessage converts one bridge-shaped payload into at most one
// canonical message, resolving or creating the originating contact first.
// Duplicates and discarded payloads yield (nil, nil).
func (service *chatService) ReconcileMessage(ctx context.Context, userID uint, payload domainBridge.MessagePayload) (*domainChat.Message, error) {
	if service.isGroupJid(payload.Key.RemoteJid) {
		logrus.Debugf("Skipping group message from %s", payload.Key.RemoteJid)
		return nil, nil
	}

	contact, err := service.resolveBridgeContact(ctx, userID, payload.Key.RemoteJid, payload.PushName)
	if err != nil {
		return nil, err
	}

	return service.persistBridgeMessage(ctx, userID, contact.ID, payload)
}

// persistBridgeMessage is the single dedup+persist path shared by webhook
// delivery and on-demand history sync.
func (service *chatService) persistBridgeMessage(ctx context.Context, userID uint, contactID uint, payload domainBridge.MessagePayload) (*domainChat.Message, error) {
	keyID := payload.Key.ID
	if keyID == "" {
		logrus.Warnf("Message without key ID, skipping")
		return nil, nil
	}

	if _, err := service.messageRepo.GetByBridgeKeyID(ctx, keyID); err == nil {
		logrus.Debugf("Duplicate message: %s", keyID)
		return nil, nil
	} else if !errors.Is(err, domainChat.ErrMessageNotFound) {
		return nil, err
	}

	classified := payload.Message.Classify()
	isOutbound := payload.Key.FromMe

	status := domainChat.MessageStatusReceived
	if isOutbound {
		status = domainChat.MessageStatusSent
	}

	message := &domainChat.Message{
		UserID:      &userID,
		ContactID:   contactID,
		BridgeKeyID: &keyID,
		Source:      domainChat.SourceBridgeAPI,
		Type:        classified.Type,
		Content:     classified.Content,
		MediaURL:    classified.MediaURL,
		IsOutbound:  isOutbound,
		Status:      status,
		Timestamp:   payload.MessageTimestamp.OrNow(),
		RawData:     string(payload.Raw),
	}

	if err := service.messageRepo.Create(ctx, message); err != nil {
		if errors.Is(err, domainChat.ErrDuplicateMessage) {
			// A concurrent delivery of the same event won the insert.
			logrus.Debugf("Duplicate message on insert: %s", keyID)
			return nil, nil
		}
		return nil, err
	}
	return message, nil
}

// resolveBridgeContact finds or creates the contact a bridge message names.
// Creation must happen before the message insert (messages require a contact).
func (service *chatService) resolveBridgeContact(ctx context.Context, userID uint, remoteJid, pushName string) (*domainChat.Contact, error) {
	contact, err := service.contactRepo.GetByUserAndRemoteJid(ctx, userID, remoteJid)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, domainChat.ErrContactNotFound) {
		return nil, err
	}

	contact = &domainChat.Contact{
		UserID:      &userID,
		WaID:        phoneFromJid(remoteJid),
		RemoteJid:   remoteJid,
		Name:        pushName,
		ProfileName: pushName,
	}
	if err := service.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// ReconcileHistory applies the dedup+persist path to a batch of payloads
// against a pre-resolved contact, counting newly created messages. One bad
// item never aborts the batch.
func (service *chatService) ReconcileHistory(ctx context.Context, userID uint, contactID uint, payloads []domainBridge.MessagePayload) (int, error) {
	created := 0
	for _, payload := range payloads {
		if service.isGroupJid(payload.Key.RemoteJid) {
			continue
		}
		message, err := service.persistBridgeMessage(ctx, userID, contactID, payload)
		if err != nil {
			logrus.Warnf("Failed to sync message %s: %v", payload.Key.ID, err)
			continue
		}
		if message != nil {
			created++
		}
	}
	return created, nil
}

// ReconcileContact upserts a contact from a bridge contacts-sync payload.
// Two lookup keys are tried in order: the routing identifier may be learned
// after the contact already exists from a phone-number-only source.
func (service *chatService) ReconcileContact(ctx context.Context, userID uint, payload domainBridge.ContactPayload) (*domainChat.Contact, error) {
	remoteJid := payload.RemoteID()
	phoneNumber := phoneFromJid(remoteJid)

	contact, err := service.contactRepo.GetByUserAndRemoteJid(ctx, userID, remoteJid)
	if errors.Is(err, domainChat.ErrContactNotFound) {
		contact, err = service.contactRepo.GetByUserAndWaID(ctx, userID, phoneNumber)
	}
	if err != nil && !errors.Is(err, domainChat.ErrContactNotFound) {
		return nil, err
	}

	if contact != nil && err == nil {
		contact.RemoteJid = remoteJid
		if payload.PushName != "" {
			contact.ProfileName = payload.PushName
		}
		if payload.Name != "" {
			contact.Name = payload.Name
		} else if contact.Name == "" {
			contact.Name = contact.ProfileName
		}
		if err := service.contactRepo.Update(ctx, contact); err != nil {
			return nil, err
		}
		return contact, nil
	}

	name := payload.Name
	if name == "" {
		name = payload.PushName
	}
	contact = &domainChat.Contact{
		UserID:      &userID,
		WaID:        phoneNumber,
		RemoteJid:   remoteJid,
		Name:        name,
		ProfileName: payload.PushName,
	}
	if err := service.contactRepo.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// ==================== On-demand Sync ====================

func (service *chatService) SyncContacts(ctx context.Context, userID uint) (domainChat.SyncResult, error) {
	inst, err := service.connectedInstance(ctx, userID)
	if err != nil {
		return domainChat.SyncResult{}, err
	}

	contacts, err := service.bridgeClient.FetchContacts(ctx, inst.Name)
	if err != nil {
		return domainChat.SyncResult{}, err
	}

	synced := 0
	for _, payload := range contacts {
		if service.isGroupJid(payload.RemoteID()) {
			continue
		}
		if _, err := service.ReconcileContact(ctx, userID, payload); err != nil {
			logrus.Warnf("Failed to sync contact %s: %v", payload.RemoteID(), err)
			continue
		}
		synced++
	}

	return domainChat.SyncResult{
		SyncedCount: synced,
		Message:     "Successfully synced " + strconv.Itoa(synced) + " contacts",
	}, nil
}

func (service *chatService) SyncChats(ctx context.Context, userID uint) ([]domainChat.ChatInfo, error) {
	inst, err := service.connectedInstance(ctx, userID)
	if err != nil {
		return nil, err
	}

	chats, err := service.bridgeClient.FetchChats(ctx, inst.Name)
	if err != nil {
		return nil, err
	}

	result := make([]domainChat.ChatInfo, 0, len(chats))
	for _, payload := range chats {
		remoteJid := payload.RemoteID()
		if service.isGroupJid(remoteJid) {
			continue
		}
		name := payload.Name
		if name == "" {
			name = payload.PushName
		}
		result = append(result, domainChat.ChatInfo{
			ID:              remoteJid,
			Name:            name,
			UnreadCount:     payload.UnreadCount,
			LastMessageTime: payload.LastMessageTime,
		})
	}
	return result, nil
}

func (service *chatService) SyncMessages(ctx context.Context, userID uint, contactID uint, limit int) (domainChat.SyncResult, error) {
	inst, err := service.connectedInstance(ctx, userID)
	if err != nil {
		return domainChat.SyncResult{}, err
	}

	contact, err := service.contactRepo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, domainChat.ErrContactNotFound) {
			return domainChat.SyncResult{}, pkgError.NotFoundError("Contact not found")
		}
		return domainChat.SyncResult{}, err
	}
	if contact.RemoteJid == "" {
		return domainChat.SyncResult{}, pkgError.ValidationError("Contact has no bridge remote JID. Sync contacts first.")
	}

	if limit <= 0 {
		limit = 30
	}

	messages, err := service.bridgeClient.FetchMessages(ctx, inst.Name, contact.RemoteJid, limit)
	if err != nil {
		return domainChat.SyncResult{}, err
	}

	synced, err := service.ReconcileHistory(ctx, userID, contact.ID, messages)
	if err != nil {
		return domainChat.SyncResult{}, err
	}

	return domainChat.SyncResult{
		SyncedCount: synced,
		Message:     "Successfully synced " + strconv.Itoa(synced) + " new messages",
	}, nil
}

// ==================== Messaging ====================

func (service *chatService) SendText(ctx context.Context, userID uint, request domainChat.SendTextRequest) (domainChat.SendTextResponse, error) {
	if err := validations.ValidateSendText(ctx, request); err != nil {
		return domainChat.SendTextResponse{}, err
	}

	inst, err := service.connectedInstance(ctx, userID)
	if err != nil {
		return domainChat.SendTextResponse{}, err
	}

	resp, err := service.bridgeClient.SendText(ctx, inst.Name, request.PhoneNumber, request.Text)
	if err != nil {
		return domainChat.SendTextResponse{}, err
	}

	return domainChat.SendTextResponse{
		Success:   true,
		MessageID: resp.Key.ID,
	}, nil
}

// ==================== Cloud API Ingest ====================

// SaveCloudMessage ingests one Cloud API webhook delivery: inbound messages
// plus delivery status updates for previously sent messages.
func (service *chatService) SaveCloudMessage(ctx context.Context, payload domainCloud.WebhookPayload) (*domainChat.Message, error) {
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}
	value := payload.Entry[0].Changes[0].Value

	for _, update := range value.Statuses {
		service.applyCloudStatus(ctx, update)
	}

	if len(value.Messages) == 0 {
		return nil, nil
	}

	var first *domainChat.Message
	for i, msgData := range value.Messages {
		var contactData *domainCloud.ContactInfo
		if i < len(value.Contacts) {
			contactData = &value.Contacts[i]
		} else if len(value.Contacts) > 0 {
			contactData = &value.Contacts[0]
		}

		message, err := service.saveCloudInbound(ctx, msgData, contactData)
		if err != nil {
			logrus.Warnf("Failed to save cloud message %s: %v", msgData.ID, err)
			continue
		}
		if first == nil {
			first = message
		}
	}
	return first, nil
}

func (service *chatService) applyCloudStatus(ctx context.Context, update domainCloud.StatusUpdate) {
	switch update.Status {
	case domainChat.MessageStatusSent, domainChat.MessageStatusDelivered, domainChat.MessageStatusRead, domainChat.MessageStatusFailed:
	default:
		logrus.Debugf("Ignoring unknown cloud status %q for %s", update.Status, update.ID)
		return
	}
	if err := service.messageRepo.UpdateStatusByWaMessageID(ctx, update.ID, update.Status); err != nil {
		logrus.Debugf("Status update for unknown message %s: %v", update.ID, err)
	}
}

func (service *chatService) saveCloudInbound(ctx context.Context, msgData domainCloud.InboundMsg, contactData *domainCloud.ContactInfo) (*domainChat.Message, error) {
	waID := msgData.From
	profileName := ""
	if contactData != nil {
		if contactData.WaID != "" {
			waID = contactData.WaID
		}
		profileName = contactData.Profile.Name
	}
	if waID == "" || msgData.ID == "" {
		logrus.Warnf("Cloud message without sender or ID, skipping")
		return nil, nil
	}

	// Idempotency on the cloud message id; webhook deliveries are retried.
	if _, err := service.messageRepo.GetByWaMessageID(ctx, nil, msgData.ID); err == nil {
		logrus.Debugf("Duplicate cloud message: %s", msgData.ID)
		return nil, nil
	} else if !errors.Is(err, domainChat.ErrMessageNotFound) {
		return nil, err
	}

	contact, err := service.contactRepo.GetByWaID(ctx, waID)
	if errors.Is(err, domainChat.ErrContactNotFound) {
		contact = &domainChat.Contact{
			WaID:        waID,
			ProfileName: profileName,
		}
		err = service.contactRepo.Create(ctx, contact)
	}
	if err != nil {
		return nil, err
	}

	conversation, err := service.conversationRepo.GetActiveByContact(ctx, contact.ID)
	if errors.Is(err, domainChat.ErrConversationNotFound) {
		conversation = &domainChat.Conversation{ContactID: contact.ID}
		err = service.conversationRepo.Create(ctx, conversation)
	}
	if err != nil {
		return nil, err
	}

	messageType, content, mediaID := classifyCloudMessage(msgData)

	timestamp := time.Now().UTC()
	if ts, err := strconv.ParseInt(msgData.Timestamp, 10, 64); err == nil && ts > 0 {
		timestamp = time.Unix(ts, 0).UTC()
	}

	rawData, _ := json.Marshal(msgData)

	message := &domainChat.Message{
		WaMessageID:    msgData.ID,
		ContactID:      contact.ID,
		ConversationID: &conversation.ID,
		Source:         domainChat.SourceCloudAPI,
		Type:           messageType,
		Content:        content,
		MediaID:        mediaID,
		IsOutbound:     false,
		Status:         domainChat.MessageStatusReceived,
		Timestamp:      timestamp,
		RawData:        string(rawData),
	}

	if err := service.messageRepo.Create(ctx, message); err != nil {
		if errors.Is(err, domainChat.ErrDuplicateMessage) {
			return nil, nil
		}
		return nil, err
	}

	if err := service.conversationRepo.TouchLastMessage(ctx, conversation.ID, time.Now().UTC()); err != nil {
		logrus.Warnf("Failed to touch conversation %d: %v", conversation.ID, err)
	}

	return message, nil
}

// classifyCloudMessage maps the Cloud API message branches to the canonical
// type/content/media fields. Unknown branches degrade, they never fail.
func classifyCloudMessage(msgData domainCloud.InboundMsg) (messageType, content, mediaID string) {
	switch msgData.Type {
	case "text":
		if msgData.Text != nil {
			return "text", msgData.Text.Body, ""
		}
		return "text", "", ""
	case "image":
		if msgData.Image != nil {
			return "image", msgData.Image.Caption, msgData.Image.ID
		}
	case "video":
		if msgData.Video != nil {
			return "video", msgData.Video.Caption, msgData.Video.ID
		}
	case "audio":
		if msgData.Audio != nil {
			return "audio", "", msgData.Audio.ID
		}
	case "document":
		if msgData.Document != nil {
			return "document", msgData.Document.Filename, msgData.Document.ID
		}
	case "sticker":
		if msgData.Sticker != nil {
			return "sticker", "", msgData.Sticker.ID
		}
	}
	if msgData.Type != "" {
		return msgData.Type, "", ""
	}
	return "unknown", "", ""
}

// ==================== Data Access ====================

func (service *chatService) ListContacts(ctx context.Context, userID uint, offset, limit int) ([]*domainChat.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	return service.contactRepo.ListByUser(ctx, userID, offset, limit)
}

func (service *chatService) ListMessages(ctx context.Context, userID uint, contactID uint, offset, limit int) ([]*domainChat.Message, *domainChat.Contact, error) {
	contact, err := service.contactRepo.GetByUserAndID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, domainChat.ErrContactNotFound) {
			return nil, nil, pkgError.NotFoundError("Contact not found")
		}
		return nil, nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	messages, err := service.messageRepo.ListByContact(ctx, userID, contactID, offset, limit)
	if err != nil {
		return nil, nil, err
	}
	return messages, contact, nil
}

func (service *chatService) ListConversations(ctx context.Context, offset, limit int) ([]*domainChat.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	return service.conversationRepo.List(ctx, offset, limit)
}

func (service *chatService) Stats(ctx context.Context) (domainChat.MessageStats, error) {
	stats, err := service.messageRepo.Stats(ctx)
	if err != nil {
		return stats, err
	}
	if stats.TotalContacts, err = service.contactRepo.Count(ctx); err != nil {
		return stats, err
	}
	if stats.TotalConversations, err = service.conversationRepo.Count(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
