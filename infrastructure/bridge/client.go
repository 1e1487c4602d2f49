package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dennis-nst/no-lose/core/config"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/sirupsen/logrus"
)

// Client talks to the self-hosted bridge API over HTTP. It is constructed
// explicitly with its configuration; no package-level singleton.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.BridgeConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// request performs one call against the bridge. Non-2xx responses and
// transport failures surface as pkgError.BridgeError with the vendor status
// code and raw body attached.
func (c *Client) request(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	url := c.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to marshal request body: %v", err), 0, "")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to build request: %v", err), 0, "")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.Errorf("Bridge API request error: %v", err)
		return nil, pkgError.NewBridgeError(fmt.Sprintf("connection error: %v", err), 0, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to read response: %v", err), resp.StatusCode, "")
	}

	if resp.StatusCode >= 400 {
		return nil, pkgError.NewBridgeError(
			fmt.Sprintf("bridge API error: %d", resp.StatusCode),
			resp.StatusCode,
			string(raw),
		)
	}

	return raw, nil
}

// CreateInstance registers a new named instance on the bridge.
// POST /instance/create
func (c *Client) CreateInstance(ctx context.Context, instanceName string) error {
	payload := map[string]any{
		"instanceName": instanceName,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}
	_, err := c.request(ctx, http.MethodPost, "/instance/create", payload)
	return err
}

// ConnectInstance triggers QR code generation for an existing instance.
// POST /instance/connect/{name}
func (c *Client) ConnectInstance(ctx context.Context, instanceName string) (domainBridge.ConnectResponse, error) {
	raw, err := c.request(ctx, http.MethodPost, "/instance/connect/"+instanceName, nil)
	if err != nil {
		return domainBridge.ConnectResponse{}, err
	}

	var out domainBridge.ConnectResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domainBridge.ConnectResponse{}, pkgError.NewBridgeError(fmt.Sprintf("invalid connect response: %v", err), 0, string(raw))
	}
	return out, nil
}

// connectionStateResponse tolerates both response layouts the bridge has
// shipped: a top-level state or one nested under "instance".
type connectionStateResponse struct {
	State    string `json:"state"`
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

// ConnectionState returns the vendor-reported state of an instance.
// GET /instance/connectionState/{name}
func (c *Client) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	raw, err := c.request(ctx, http.MethodGet, "/instance/connectionState/"+instanceName, nil)
	if err != nil {
		return "", err
	}

	var out connectionStateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", pkgError.NewBridgeError(fmt.Sprintf("invalid state response: %v", err), 0, string(raw))
	}
	if out.State != "" {
		return out.State, nil
	}
	if out.Instance.State != "" {
		return out.Instance.State, nil
	}
	return domainBridge.StateClose, nil
}

// QRCode fetches the current QR code for an instance.
// GET /instance/qrcode/{name}
func (c *Client) QRCode(ctx context.Context, instanceName string) (domainBridge.QRCodeResponse, error) {
	raw, err := c.request(ctx, http.MethodGet, "/instance/qrcode/"+instanceName, nil)
	if err != nil {
		return domainBridge.QRCodeResponse{}, err
	}

	var out domainBridge.QRCodeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domainBridge.QRCodeResponse{}, pkgError.NewBridgeError(fmt.Sprintf("invalid qrcode response: %v", err), 0, string(raw))
	}
	return out, nil
}

// Logout disconnects the WhatsApp session of an instance.
// DELETE /instance/logout/{name}
func (c *Client) Logout(ctx context.Context, instanceName string) error {
	_, err := c.request(ctx, http.MethodDelete, "/instance/logout/"+instanceName, nil)
	return err
}

// Delete removes an instance from the bridge completely.
// DELETE /instance/delete/{name}
func (c *Client) Delete(ctx context.Context, instanceName string) error {
	_, err := c.request(ctx, http.MethodDelete, "/instance/delete/"+instanceName, nil)
	return err
}

// FetchContacts lists every contact known to the instance.
// GET /chat/findContacts/{name}
func (c *Client) FetchContacts(ctx context.Context, instanceName string) ([]domainBridge.ContactPayload, error) {
	raw, err := c.request(ctx, http.MethodGet, "/chat/findContacts/"+instanceName, nil)
	if err != nil {
		return nil, err
	}

	var list []domainBridge.ContactPayload
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Contacts []domainBridge.ContactPayload `json:"contacts"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("invalid contacts response: %v", err), 0, string(raw))
	}
	return wrapped.Contacts, nil
}

// FetchChats lists the open chats of the instance.
// GET /chat/findChats/{name}
func (c *Client) FetchChats(ctx context.Context, instanceName string) ([]domainBridge.ChatPayload, error) {
	raw, err := c.request(ctx, http.MethodGet, "/chat/findChats/"+instanceName, nil)
	if err != nil {
		return nil, err
	}

	var list []domainBridge.ChatPayload
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Chats []domainBridge.ChatPayload `json:"chats"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("invalid chats response: %v", err), 0, string(raw))
	}
	return wrapped.Chats, nil
}

// FetchMessages returns the message history of one chat.
// POST /chat/findMessages/{name}
func (c *Client) FetchMessages(ctx context.Context, instanceName, remoteJid string, limit int) ([]domainBridge.MessagePayload, error) {
	payload := map[string]any{
		"where": map[string]any{
			"key": map[string]any{
				"remoteJid": remoteJid,
			},
		},
		"limit": limit,
	}
	raw, err := c.request(ctx, http.MethodPost, "/chat/findMessages/"+instanceName, payload)
	if err != nil {
		return nil, err
	}

	var list []domainBridge.MessagePayload
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Messages []domainBridge.MessagePayload `json:"messages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("invalid messages response: %v", err), 0, string(raw))
	}
	return wrapped.Messages, nil
}

// SendText sends a plain text message through the instance.
// POST /message/sendText/{name}
func (c *Client) SendText(ctx context.Context, instanceName, number, text string) (domainBridge.SendResponse, error) {
	payload := map[string]any{
		"number": number,
		"text":   text,
	}
	raw, err := c.request(ctx, http.MethodPost, "/message/sendText/"+instanceName, payload)
	if err != nil {
		return domainBridge.SendResponse{}, err
	}

	var out domainBridge.SendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domainBridge.SendResponse{}, pkgError.NewBridgeError(fmt.Sprintf("invalid send response: %v", err), 0, string(raw))
	}
	return out, nil
}
