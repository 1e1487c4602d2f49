package usecase

import (
	"context"
	"encoding/json"
	"testing"

	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookService(repos testRepos, client domainBridge.IBridgeClient) domainBridge.IWebhookUsecase {
	instanceService := newInstanceService(repos, client)
	chatService := newChatService(repos, client)
	return NewWebhookService(instanceService, chatService)
}

func TestHandleEventUnknownInstanceIsNoOp(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})

	err := service.HandleEvent(context.Background(), domainBridge.WebhookEvent{
		Event:    domainBridge.EventConnectionUpdate,
		Instance: "user_999",
		Data:     json.RawMessage(`{"state":"open"}`),
	})
	require.NoError(t, err, "events for unknown instances must be dropped, not retried")
}

func TestHandleEventConnectionUpdate(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	connectInstance(t, repos, 1)

	err := service.HandleEvent(ctx, domainBridge.WebhookEvent{
		Event:    domainBridge.EventConnectionUpdate,
		Instance: "user_1",
		Data:     json.RawMessage(`{"state":"close"}`),
	})
	require.NoError(t, err)

	stored, err := repos.instance.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusDisconnected, stored.Status)
}

func TestHandleEventQRCodeUpdated(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	inst := &domainInstance.Instance{
		UserID: 1,
		Name:   "user_1",
		Status: domainInstance.StatusConnecting,
	}
	require.NoError(t, repos.instance.Create(ctx, inst))

	err := service.HandleEvent(ctx, domainBridge.WebhookEvent{
		Event:    domainBridge.EventQRCodeUpdated,
		Instance: "user_1",
		Data:     json.RawMessage(`{"qrcode":{"base64":"data:image/png;base64,FRESH"}}`),
	})
	require.NoError(t, err)

	stored, err := repos.instance.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domainInstance.StatusQR, stored.Status)
	assert.Equal(t, "data:image/png;base64,FRESH", stored.QRCode)
}

func TestHandleEventMessagesUpsertSingleObject(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	connectInstance(t, repos, 1)

	err := service.HandleEvent(ctx, domainBridge.WebhookEvent{
		Event:    domainBridge.EventMessagesUpsert,
		Instance: "user_1",
		Data: json.RawMessage(`{"key":{"id":"W1","remoteJid":"5215512345678@s.whatsapp.net","fromMe":false},
			"message":{"conversation":"hola"},"messageTimestamp":1718200000}`),
	})
	require.NoError(t, err)

	stored, err := repos.message.GetByBridgeKeyID(ctx, "W1")
	require.NoError(t, err)
	assert.Equal(t, "hola", stored.Content)
}

func TestHandleEventMessagesUpsertArray(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	connectInstance(t, repos, 1)

	err := service.HandleEvent(ctx, domainBridge.WebhookEvent{
		Event:    domainBridge.EventMessagesUpsert,
		Instance: "user_1",
		Data: json.RawMessage(`[
			{"key":{"id":"A1","remoteJid":"5215512345678@s.whatsapp.net"},"message":{"conversation":"uno"}},
			{"key":{"id":"A2","remoteJid":"5215512345678@s.whatsapp.net"},"message":{"conversation":"dos"}}
		]`),
	})
	require.NoError(t, err)

	stats, err := repos.message.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalMessages)
}

func TestHandleEventMalformedDataIsDropped(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})

	connectInstance(t, repos, 1)

	err := service.HandleEvent(context.Background(), domainBridge.WebhookEvent{
		Event:    domainBridge.EventMessagesUpsert,
		Instance: "user_1",
		Data:     json.RawMessage(`"not an object"`),
	})
	require.NoError(t, err)
}

func TestHandleEventUnknownEventType(t *testing.T) {
	repos := setupTestDB(t)
	service := newWebhookService(repos, &fakeBridgeClient{})

	connectInstance(t, repos, 1)

	err := service.HandleEvent(context.Background(), domainBridge.WebhookEvent{
		Event:    "presence.update",
		Instance: "user_1",
		Data:     json.RawMessage(`{}`),
	})
	require.NoError(t, err)
}
