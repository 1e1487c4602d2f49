package chat

import (
	"context"

	"github.com/dennis-nst/no-lose/domains/bridge"
	"github.com/dennis-nst/no-lose/domains/cloud"
)

type SyncResult struct {
	SyncedCount int    `json:"synced_count"`
	Message     string `json:"message"`
}

type ChatInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	UnreadCount     int    `json:"unread_count"`
	LastMessageTime string `json:"last_message_time,omitempty"`
}

type SendTextRequest struct {
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Text        string `json:"text" form:"text"`
}

type SendTextResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

type IChatUsecase interface {
	// Bridge-sourced reconciliation. ReconcileMessage returns the created
	// message, or (nil, nil) when the payload was a duplicate or discarded.
	ReconcileMessage(ctx context.Context, userID uint, payload bridge.MessagePayload) (*Message, error)
	// ReconcileHistory applies ReconcileMessage against a pre-resolved
	// contact, counting newly created messages and surviving bad items.
	ReconcileHistory(ctx context.Context, userID uint, contactID uint, payloads []bridge.MessagePayload) (int, error)
	ReconcileContact(ctx context.Context, userID uint, payload bridge.ContactPayload) (*Contact, error)

	// On-demand sync, user triggered. Feeds the same reconciliation paths.
	SyncContacts(ctx context.Context, userID uint) (SyncResult, error)
	SyncChats(ctx context.Context, userID uint) ([]ChatInfo, error)
	SyncMessages(ctx context.Context, userID uint, contactID uint, limit int) (SyncResult, error)

	SendText(ctx context.Context, userID uint, request SendTextRequest) (SendTextResponse, error)

	// Cloud API webhook ingest: messages plus delivery status updates.
	SaveCloudMessage(ctx context.Context, payload cloud.WebhookPayload) (*Message, error)

	ListContacts(ctx context.Context, userID uint, offset, limit int) ([]*Contact, error)
	ListMessages(ctx context.Context, userID uint, contactID uint, offset, limit int) ([]*Message, *Contact, error)
	ListConversations(ctx context.Context, offset, limit int) ([]*Conversation, error)
	Stats(ctx context.Context) (MessageStats, error)
}
