package bridge

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassifyKnownShapes(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantType string
		wantText string
		wantURL  string
	}{
		{"conversation", `{"conversation":"hola"}`, "text", "hola", ""},
		{"extended text", `{"extendedTextMessage":{"text":"con link"}}`, "text", "con link", ""},
		{"image", `{"imageMessage":{"caption":"foto","url":"https://cdn/img"}}`, "image", "foto", "https://cdn/img"},
		{"video", `{"videoMessage":{"caption":"clip","url":"https://cdn/vid"}}`, "video", "clip", "https://cdn/vid"},
		{"audio", `{"audioMessage":{"url":"https://cdn/audio"}}`, "audio", "", "https://cdn/audio"},
		{"document", `{"documentMessage":{"fileName":"factura.pdf","url":"https://cdn/doc"}}`, "document", "factura.pdf", "https://cdn/doc"},
		{"sticker", `{"stickerMessage":{"url":"https://cdn/sticker"}}`, "sticker", "", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var content MessageContent
			if err := json.Unmarshal([]byte(c.body), &content); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got := content.Classify()
			if got.Type != c.wantType {
				t.Errorf("expected type %s, got %s", c.wantType, got.Type)
			}
			if got.Content != c.wantText {
				t.Errorf("expected content %q, got %q", c.wantText, got.Content)
			}
			if got.MediaURL != c.wantURL {
				t.Errorf("expected media url %q, got %q", c.wantURL, got.MediaURL)
			}
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// When multiple shapes appear, the first match in priority order wins.
	var content MessageContent
	body := `{"imageMessage":{"caption":"foto"},"conversation":"texto gana"}`
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := content.Classify()
	if got.Type != "text" || got.Content != "texto gana" {
		t.Errorf("expected conversation to win, got %s %q", got.Type, got.Content)
	}
}

func TestClassifyNilContent(t *testing.T) {
	var content *MessageContent
	got := content.Classify()
	if got.Type != "unknown" || got.Content != "" {
		t.Errorf("nil content must classify as bare unknown, got %s %q", got.Type, got.Content)
	}
}

func TestClassifyUnknownShapeKeepsBoundedSnapshot(t *testing.T) {
	big := strings.Repeat("x", 2000)
	body := `{"reactionMessage":{"payload":"` + big + `"}}`

	var content MessageContent
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := content.Classify()
	if got.Type != "unknown" {
		t.Fatalf("expected unknown, got %s", got.Type)
	}
	if len(got.Content) != snapshotLimit {
		t.Errorf("expected snapshot truncated to %d chars, got %d", snapshotLimit, len(got.Content))
	}
	if !strings.HasPrefix(got.Content, `{"reactionMessage"`) {
		t.Errorf("snapshot must keep the original head, got %q", got.Content[:30])
	}
}

func TestMessagePayloadRetainsRaw(t *testing.T) {
	body := `{"key":{"id":"K1","remoteJid":"1@s.whatsapp.net"},"message":{"conversation":"hola"},"messageTimestamp":"1718200000"}`

	var payload MessagePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if string(payload.Raw) != body {
		t.Error("expected the original JSON retained verbatim")
	}
	if payload.MessageTimestamp.IsZero() {
		t.Error("expected string epoch parsed")
	}
	if payload.MessageTimestamp.Time().Unix() != 1718200000 {
		t.Errorf("expected 1718200000, got %d", payload.MessageTimestamp.Time().Unix())
	}
}

func TestContactPayloadRemoteID(t *testing.T) {
	withID := ContactPayload{ID: "1@s.whatsapp.net", RemoteJid: "ignored"}
	if withID.RemoteID() != "1@s.whatsapp.net" {
		t.Errorf("id field must win, got %s", withID.RemoteID())
	}

	jidOnly := ContactPayload{RemoteJid: "2@s.whatsapp.net"}
	if jidOnly.RemoteID() != "2@s.whatsapp.net" {
		t.Errorf("expected remoteJid fallback, got %s", jidOnly.RemoteID())
	}
}
