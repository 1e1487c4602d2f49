package bridge

import (
	"encoding/json"

	"github.com/dennis-nst/no-lose/pkg/timeutils"
)

type MessageKey struct {
	ID        string `json:"id"`
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
}

// MessagePayload is one inbound message in the bridge shape, delivered either
// by the messages.upsert webhook or by the findMessages history endpoint.
// The original JSON is retained verbatim in Raw for forensic replay.
type MessagePayload struct {
	Key              MessageKey             `json:"key"`
	PushName         string                 `json:"pushName"`
	Message          *MessageContent        `json:"message"`
	MessageTimestamp timeutils.EpochSeconds `json:"messageTimestamp"`

	Raw json.RawMessage `json:"-"`
}

func (m *MessagePayload) UnmarshalJSON(data []byte) error {
	type alias MessagePayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = MessagePayload(a)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MessageContent is a tagged union: exactly one of the pointer fields is
// expected to be set for known shapes. Unknown shapes keep their raw JSON.
type MessageContent struct {
	Conversation        *string              `json:"conversation"`
	ExtendedTextMessage *ExtendedTextContent `json:"extendedTextMessage"`
	ImageMessage        *MediaContent        `json:"imageMessage"`
	VideoMessage        *MediaContent        `json:"videoMessage"`
	AudioMessage        *MediaContent        `json:"audioMessage"`
	DocumentMessage     *DocumentContent     `json:"documentMessage"`
	StickerMessage      *StickerContent      `json:"stickerMessage"`

	Raw json.RawMessage `json:"-"`
}

func (m *MessageContent) UnmarshalJSON(data []byte) error {
	type alias MessageContent
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = MessageContent(a)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type ExtendedTextContent struct {
	Text string `json:"text"`
}

type MediaContent struct {
	Caption  string `json:"caption"`
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
}

type DocumentContent struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
}

type StickerContent struct {
	URL string `json:"url"`
}

// snapshotLimit bounds the raw excerpt stored for unrecognized shapes.
const snapshotLimit = 500

// Classified is the outcome of shape matching on a MessageContent.
type Classified struct {
	Type     string
	Content  string
	MediaURL string
}

// Classify matches the content against the known shapes in priority order.
// Unrecognized shapes degrade to type "unknown" with a bounded raw snapshot,
// they never fail.
func (m *MessageContent) Classify() Classified {
	if m == nil {
		return Classified{Type: "unknown"}
	}

	switch {
	case m.Conversation != nil:
		return Classified{Type: "text", Content: *m.Conversation}
	case m.ExtendedTextMessage != nil:
		return Classified{Type: "text", Content: m.ExtendedTextMessage.Text}
	case m.ImageMessage != nil:
		return Classified{Type: "image", Content: m.ImageMessage.Caption, MediaURL: m.ImageMessage.URL}
	case m.VideoMessage != nil:
		return Classified{Type: "video", Content: m.VideoMessage.Caption, MediaURL: m.VideoMessage.URL}
	case m.AudioMessage != nil:
		return Classified{Type: "audio", MediaURL: m.AudioMessage.URL}
	case m.DocumentMessage != nil:
		return Classified{Type: "document", Content: m.DocumentMessage.FileName, MediaURL: m.DocumentMessage.URL}
	case m.StickerMessage != nil:
		return Classified{Type: "sticker"}
	}

	snapshot := string(m.Raw)
	if len(snapshot) > snapshotLimit {
		snapshot = snapshot[:snapshotLimit]
	}
	return Classified{Type: "unknown", Content: snapshot}
}
