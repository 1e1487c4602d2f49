package bridge

import "context"

// IWebhookUsecase routes bridge webhook envelopes to the owning instance.
// Events for unknown instances or with unknown names are acknowledged and
// dropped so the bridge never retries them.
type IWebhookUsecase interface {
	HandleEvent(ctx context.Context, event WebhookEvent) error
}
