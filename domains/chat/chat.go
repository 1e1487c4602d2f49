package chat

import "time"

// MessageSource tags which transport produced a message.
type MessageSource string

const (
	SourceCloudAPI  MessageSource = "cloud_api"
	SourceBridgeAPI MessageSource = "bridge_api"
)

// Delivery status values. Inbound messages start as received, outbound as
// sent and may advance to delivered/read or fall to failed.
const (
	MessageStatusReceived  = "received"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// Contact is a WhatsApp peer associated with a user. RemoteJid is the bridge
// routing identifier (phone + domain suffix); it may be learned after the
// contact already exists from the Cloud API path.
type Contact struct {
	ID          uint      `json:"id"`
	UserID      *uint     `json:"user_id,omitempty"`
	WaID        string    `json:"wa_id"`
	Name        string    `json:"name,omitempty"`
	ProfileName string    `json:"profile_name,omitempty"`
	RemoteJid   string    `json:"remote_jid,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation groups messages with one contact. At most one conversation per
// contact is active at a time.
type Conversation struct {
	ID            uint      `json:"id"`
	ContactID     uint      `json:"contact_id"`
	StartedAt     time.Time `json:"started_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	IsActive      bool      `json:"is_active"`
}

// Message is the canonical record produced by the reconciliation engine.
// WaMessageID and BridgeKeyID are the source-specific external keys, mutually
// exclusive; BridgeKeyID is globally unique when present. A message is
// immutable after creation except for Status.
type Message struct {
	ID             uint          `json:"id"`
	UserID         *uint         `json:"user_id,omitempty"`
	ContactID      uint          `json:"contact_id"`
	ConversationID *uint         `json:"conversation_id,omitempty"`
	WaMessageID    string        `json:"wa_message_id,omitempty"`
	BridgeKeyID    *string       `json:"bridge_key_id,omitempty"`
	Source         MessageSource `json:"source"`
	Type           string        `json:"type"`
	Content        string        `json:"content,omitempty"`
	MediaURL       string        `json:"media_url,omitempty"`
	MediaID        string        `json:"media_id,omitempty"`
	IsOutbound     bool          `json:"is_outbound"`
	Status         string        `json:"status"`
	Timestamp      time.Time     `json:"timestamp"`
	CreatedAt      time.Time     `json:"created_at"`
	RawData        string        `json:"-"`
}
