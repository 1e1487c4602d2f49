package cloud

import "context"

// ICloudClient is the outbound surface against the Meta-hosted Cloud API
// (one phone number per deployment).
type ICloudClient interface {
	VerifyToken(ctx context.Context) (map[string]any, error)
	BusinessProfile(ctx context.Context) (map[string]any, error)
	PhoneNumbers(ctx context.Context) (map[string]any, error)
	MessageTemplates(ctx context.Context) (map[string]any, error)
	DownloadMedia(ctx context.Context, mediaID string) (MediaInfo, error)
	SendText(ctx context.Context, toPhone, text string) (map[string]any, error)
}

type MediaInfo struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	MimeType    string `json:"mime_type"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size,omitempty"`
}

// WebhookPayload is the Cloud API inbound webhook envelope:
// entry[].changes[].value carries messages, contacts and status updates.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string         `json:"messaging_product"`
	Contacts         []ContactInfo  `json:"contacts"`
	Messages         []InboundMsg   `json:"messages"`
	Statuses         []StatusUpdate `json:"statuses"`
}

type ContactInfo struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMsg is one message in the Cloud API shape. Type names the populated
// branch; media branches share the Media struct.
type InboundMsg struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *Media `json:"image"`
	Video    *Media `json:"video"`
	Audio    *Media `json:"audio"`
	Document *Media `json:"document"`
	Sticker  *Media `json:"sticker"`
}

type Media struct {
	ID       string `json:"id"`
	Caption  string `json:"caption"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Filename string `json:"filename"`
}

// StatusUpdate advances a previously sent message through
// sent -> delivered -> read, or marks it failed.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
