package cloudapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dennis-nst/no-lose/core/config"
	"github.com/dennis-nst/no-lose/domains/cloud"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
)

// Client talks to the Meta Graph API for the Cloud-hosted WhatsApp number.
type Client struct {
	baseURL           string
	accessToken       string
	phoneNumberID     string
	businessAccountID string
	httpClient        *http.Client
}

func NewClient(cfg config.CloudAPIConfig) *Client {
	return &Client{
		baseURL:           cfg.BaseURL,
		accessToken:       cfg.AccessToken,
		phoneNumberID:     cfg.PhoneNumberID,
		businessAccountID: cfg.BusinessAccountID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to marshal request body: %v", err), 0, "")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to build request: %v", err), 0, "")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("connection error: %v", err), 0, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgError.NewBridgeError(fmt.Sprintf("failed to read response: %v", err), resp.StatusCode, "")
	}

	if resp.StatusCode >= 400 {
		return nil, pkgError.NewBridgeError(
			fmt.Sprintf("cloud API error: %d", resp.StatusCode),
			resp.StatusCode,
			string(raw),
		)
	}

	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values) (map[string]any, error) {
	raw, err := c.request(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, pkgError.NewBridgeError(fmt.Sprintf("invalid response: %v", err), 0, string(raw))
		}
	}
	return out, nil
}

// VerifyToken checks the access token against /me.
func (c *Client) VerifyToken(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/me", nil)
}

// BusinessProfile returns the WhatsApp business profile fields.
func (c *Client) BusinessProfile(ctx context.Context) (map[string]any, error) {
	query := url.Values{}
	query.Set("fields", "about,address,description,email,profile_picture_url,websites,vertical")
	return c.getJSON(ctx, "/"+c.phoneNumberID+"/whatsapp_business_profile", query)
}

// PhoneNumbers lists the numbers attached to the business account.
func (c *Client) PhoneNumbers(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/"+c.businessAccountID+"/phone_numbers", nil)
}

// MessageTemplates lists the approved message templates.
func (c *Client) MessageTemplates(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/"+c.businessAccountID+"/message_templates", nil)
}

// DownloadMedia resolves a media ID to its download URL and metadata.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) (cloud.MediaInfo, error) {
	raw, err := c.request(ctx, http.MethodGet, "/"+mediaID, nil, nil)
	if err != nil {
		return cloud.MediaInfo{}, err
	}

	var info cloud.MediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return cloud.MediaInfo{}, pkgError.NewBridgeError(fmt.Sprintf("invalid media response: %v", err), 0, string(raw))
	}

	if info.URL == "" {
		return info, nil
	}

	// The media URL itself requires the same bearer token.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return info, nil
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return info, nil
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err == nil {
		info.ContentType = resp.Header.Get("Content-Type")
		info.Size = len(content)
	}
	return info, nil
}

// SendText sends a plain text message from the cloud number.
func (c *Client) SendText(ctx context.Context, toPhone, text string) (map[string]any, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                toPhone,
		"type":              "text",
		"text":              map[string]any{"body": text},
	}
	raw, err := c.request(ctx, http.MethodPost, "/"+c.phoneNumberID+"/messages", nil, payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, pkgError.NewBridgeError(fmt.Sprintf("invalid send response: %v", err), 0, string(raw))
		}
	}
	return out, nil
}
