package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dennis-nst/no-lose/core/config"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type stubWebhookUsecase struct {
	events []domainBridge.WebhookEvent
}

func (s *stubWebhookUsecase) HandleEvent(_ context.Context, event domainBridge.WebhookEvent) error {
	s.events = append(s.events, event)
	return nil
}

// stubChatUsecase records cloud payloads; everything else is inert.
type stubChatUsecase struct {
	cloudPayloads []domainCloud.WebhookPayload
}

func (s *stubChatUsecase) ReconcileMessage(context.Context, uint, domainBridge.MessagePayload) (*domainChat.Message, error) {
	return nil, nil
}
func (s *stubChatUsecase) ReconcileHistory(context.Context, uint, uint, []domainBridge.MessagePayload) (int, error) {
	return 0, nil
}
func (s *stubChatUsecase) ReconcileContact(context.Context, uint, domainBridge.ContactPayload) (*domainChat.Contact, error) {
	return nil, nil
}
func (s *stubChatUsecase) SyncContacts(context.Context, uint) (domainChat.SyncResult, error) {
	return domainChat.SyncResult{}, nil
}
func (s *stubChatUsecase) SyncChats(context.Context, uint) ([]domainChat.ChatInfo, error) {
	return nil, nil
}
func (s *stubChatUsecase) SyncMessages(context.Context, uint, uint, int) (domainChat.SyncResult, error) {
	return domainChat.SyncResult{}, nil
}
func (s *stubChatUsecase) SendText(context.Context, uint, domainChat.SendTextRequest) (domainChat.SendTextResponse, error) {
	return domainChat.SendTextResponse{}, nil
}
func (s *stubChatUsecase) SaveCloudMessage(_ context.Context, payload domainCloud.WebhookPayload) (*domainChat.Message, error) {
	s.cloudPayloads = append(s.cloudPayloads, payload)
	return nil, nil
}
func (s *stubChatUsecase) ListContacts(context.Context, uint, int, int) ([]*domainChat.Contact, error) {
	return nil, nil
}
func (s *stubChatUsecase) ListMessages(context.Context, uint, uint, int, int) ([]*domainChat.Message, *domainChat.Contact, error) {
	return nil, nil, nil
}
func (s *stubChatUsecase) ListConversations(context.Context, int, int) ([]*domainChat.Conversation, error) {
	return nil, nil
}
func (s *stubChatUsecase) Stats(context.Context) (domainChat.MessageStats, error) {
	return domainChat.MessageStats{}, nil
}

func newWebhookApp(cloudCfg config.CloudAPIConfig) (*fiber.App, *stubWebhookUsecase, *stubChatUsecase) {
	app := fiber.New()
	bridgeStub := &stubWebhookUsecase{}
	chatStub := &stubChatUsecase{}
	InitRestWebhook(app, bridgeStub, chatStub, cloudCfg)
	return app, bridgeStub, chatStub
}

func TestVerifyCloudHandshake(t *testing.T) {
	app, _, _ := newWebhookApp(config.CloudAPIConfig{VerifyToken: "secret-token"})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "12345" {
		t.Errorf("expected challenge echoed, got %q", string(body))
	}
}

func TestVerifyCloudRejectsWrongToken(t *testing.T) {
	app, _, _ := newWebhookApp(config.CloudAPIConfig{VerifyToken: "secret-token"})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestReceiveCloudEnforcesSignature(t *testing.T) {
	app, _, chatStub := newWebhookApp(config.CloudAPIConfig{AppSecret: "app-secret"})
	body := `{"object":"whatsapp_business_account","entry":[]}`

	// Unsigned delivery is rejected.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for unsigned payload, got %d", resp.StatusCode)
	}
	if len(chatStub.cloudPayloads) != 0 {
		t.Fatal("rejected payload must not reach the usecase")
	}

	// Properly signed delivery goes through.
	digest, err := utils.GetMessageDigestOrSignature([]byte(body), []byte("app-secret"))
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", "sha256="+digest)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for signed payload, got %d", resp.StatusCode)
	}
	if len(chatStub.cloudPayloads) != 1 {
		t.Fatal("expected payload forwarded to the usecase")
	}
}

func TestReceiveCloudWithoutSecretSkipsCheck(t *testing.T) {
	app, _, chatStub := newWebhookApp(config.CloudAPIConfig{})
	body := `{"object":"whatsapp_business_account","entry":[]}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(chatStub.cloudPayloads) != 1 {
		t.Fatal("expected payload forwarded to the usecase")
	}
}

func TestReceiveBridgeAlwaysAcknowledges(t *testing.T) {
	app, bridgeStub, _ := newWebhookApp(config.CloudAPIConfig{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/bridge",
		strings.NewReader(`{"event":"connection.update","instance":"user_1","data":{"state":"open"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(bridgeStub.events) != 1 || bridgeStub.events[0].Event != "connection.update" {
		t.Fatalf("expected the event routed, got %+v", bridgeStub.events)
	}

	// Malformed body still returns 200.
	req = httptest.NewRequest(http.MethodPost, "/webhook/bridge", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for malformed body, got %d", resp.StatusCode)
	}
}
