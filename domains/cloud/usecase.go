package cloud

import "context"

type SendTextRequest struct {
	To   string `json:"to" form:"to"`
	Text string `json:"text" form:"text"`
}

type SendResult struct {
	MessageID string         `json:"message_id,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// ICloudUsecase exposes the Cloud API account operations plus outbound
// sending. Sent messages are recorded locally so later webhook status
// updates have a row to land on.
type ICloudUsecase interface {
	VerifyConnection(ctx context.Context) (map[string]any, error)
	Profile(ctx context.Context) (map[string]any, error)
	PhoneNumbers(ctx context.Context) (map[string]any, error)
	Templates(ctx context.Context) (map[string]any, error)
	Media(ctx context.Context, mediaID string) (MediaInfo, error)
	SendText(ctx context.Context, request SendTextRequest) (SendResult, error)
}
