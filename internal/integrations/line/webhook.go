package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"line-companion/internal/domain"
)

// SignatureHeader carries the base64-encoded HMAC-SHA256 of the raw request
// body, keyed with the channel secret.
const SignatureHeader = "X-Line-Signature"

// ErrInvalidSignature is returned when the signature header is absent or does
// not match the request body.
var ErrInvalidSignature = errors.New("line: invalid webhook signature")

type webhookPayload struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken"`
	Message    webhookMessage `json:"message"`
}

type webhookMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

// WebhookParser verifies webhook signatures and extracts text message events.
type WebhookParser struct {
	secret []byte
}

// NewWebhookParser creates a parser keyed with the channel secret.
func NewWebhookParser(channelSecret string) (*WebhookParser, error) {
	channelSecret = strings.TrimSpace(channelSecret)
	if channelSecret == "" {
		return nil, errors.New("line: channel secret must not be empty")
	}
	return &WebhookParser{secret: []byte(channelSecret)}, nil
}

// VerifySignature checks the signature header against the raw body. The
// comparison is constant-time.
func (p *WebhookParser) VerifySignature(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrInvalidSignature
	}
	claimed, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(body)
	if !hmac.Equal(claimed, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseEvents decodes a verified webhook body and returns the contained text
// message events. Events of other types, and text events without a reply
// token, are skipped.
func (p *WebhookParser) ParseEvents(body []byte) ([]domain.TextMessageEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("line: parse webhook payload: %w", err)
	}
	var events []domain.TextMessageEvent
	for _, ev := range payload.Events {
		if ev.Type != "message" || ev.Message.Type != "text" {
			continue
		}
		if strings.TrimSpace(ev.ReplyToken) == "" {
			continue
		}
		events = append(events, domain.TextMessageEvent{
			ReplyToken: ev.ReplyToken,
			Text:       ev.Message.Text,
		})
	}
	return events, nil
}
