package chat

import (
	"context"
	"time"
)

// IContactRepository persists contacts. Uniqueness of (user_id, remote_jid)
// is enforced by the storage layer once the remote jid is known.
type IContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, id uint) (*Contact, error)
	GetByUserAndID(ctx context.Context, userID uint, id uint) (*Contact, error)
	GetByUserAndRemoteJid(ctx context.Context, userID uint, remoteJid string) (*Contact, error)
	GetByUserAndWaID(ctx context.Context, userID uint, waID string) (*Contact, error)
	// GetByWaID resolves legacy single-tenant contacts (no owning user).
	GetByWaID(ctx context.Context, waID string) (*Contact, error)
	Update(ctx context.Context, contact *Contact) error
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*Contact, error)
	Count(ctx context.Context) (int64, error)
}

// IMessageRepository persists canonical messages. Create must surface
// ErrDuplicateMessage on an external-key uniqueness violation so concurrent
// duplicate deliveries converge to a single row.
type IMessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByBridgeKeyID(ctx context.Context, keyID string) (*Message, error)
	GetByWaMessageID(ctx context.Context, userID *uint, waMessageID string) (*Message, error)
	ListByContact(ctx context.Context, userID uint, contactID uint, offset, limit int) ([]*Message, error)
	UpdateStatusByWaMessageID(ctx context.Context, waMessageID, status string) error
	Stats(ctx context.Context) (MessageStats, error)
}

type MessageStats struct {
	TotalMessages      int64 `json:"total_messages"`
	TotalContacts      int64 `json:"total_contacts"`
	TotalConversations int64 `json:"total_conversations"`
	InboundMessages    int64 `json:"inbound_messages"`
	OutboundMessages   int64 `json:"outbound_messages"`
}

// IConversationRepository manages the single active conversation per contact.
type IConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	GetActiveByContact(ctx context.Context, contactID uint) (*Conversation, error)
	TouchLastMessage(ctx context.Context, id uint, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]*Conversation, error)
	Count(ctx context.Context) (int64, error)
}
