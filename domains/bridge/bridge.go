package bridge

import (
	"context"
	"encoding/json"
)

// Bridge connection states as reported by the vendor.
const (
	StateOpen       = "open"
	StateConnecting = "connecting"
	StateClose      = "close"
)

// IBridgeClient is the outbound surface against the self-hosted bridge API.
// One bridge deployment multiplexes many named instances.
type IBridgeClient interface {
	CreateInstance(ctx context.Context, instanceName string) error
	ConnectInstance(ctx context.Context, instanceName string) (ConnectResponse, error)
	ConnectionState(ctx context.Context, instanceName string) (string, error)
	QRCode(ctx context.Context, instanceName string) (QRCodeResponse, error)
	Logout(ctx context.Context, instanceName string) error
	Delete(ctx context.Context, instanceName string) error
	FetchContacts(ctx context.Context, instanceName string) ([]ContactPayload, error)
	FetchChats(ctx context.Context, instanceName string) ([]ChatPayload, error)
	FetchMessages(ctx context.Context, instanceName, remoteJid string, limit int) ([]MessagePayload, error)
	SendText(ctx context.Context, instanceName, number, text string) (SendResponse, error)
}

type ConnectResponse struct {
	PairingCode string `json:"pairingCode"`
	Code        string `json:"code"`
	Base64      string `json:"base64"`
}

type QRCodeResponse struct {
	PairingCode string `json:"pairingCode"`
	Code        string `json:"code"`
	Base64      string `json:"base64"`
}

type SendResponse struct {
	Key    MessageKey `json:"key"`
	Status string     `json:"status"`
}

// ContactPayload is one entry of the bridge "findContacts" result.
type ContactPayload struct {
	ID        string `json:"id"`
	RemoteJid string `json:"remoteJid"`
	PushName  string `json:"pushName"`
	Name      string `json:"name"`
}

// RemoteID returns the routing identifier, whichever field the bridge used.
func (c ContactPayload) RemoteID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.RemoteJid
}

// ChatPayload is one entry of the bridge "findChats" result.
type ChatPayload struct {
	ID              string `json:"id"`
	RemoteJid       string `json:"remoteJid"`
	Name            string `json:"name"`
	PushName        string `json:"pushName"`
	UnreadCount     int    `json:"unreadCount"`
	LastMessageTime string `json:"lastMessageTime"`
}

func (c ChatPayload) RemoteID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.RemoteJid
}

// WebhookEvent is the envelope the bridge posts to our webhook endpoint.
type WebhookEvent struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// Bridge webhook event names.
const (
	EventConnectionUpdate = "connection.update"
	EventQRCodeUpdated    = "qrcode.updated"
	EventMessagesUpsert   = "messages.upsert"
)

// ConnectionUpdateData carries the state push for one instance. Connection
// info (own number, push name) is only present when the state is open.
type ConnectionUpdateData struct {
	State      string `json:"state"`
	Connection *struct {
		Wid struct {
			User string `json:"user"`
		} `json:"wid"`
		PushName string `json:"pushName"`
	} `json:"connection"`
}

// QRCodeUpdatedData carries a freshly issued QR for an instance.
type QRCodeUpdatedData struct {
	QRCode struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	} `json:"qrcode"`
}
