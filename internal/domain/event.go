package domain

// TextMessageEvent is a single inbound text message extracted from a webhook
// delivery. The reply token is one-time use and only valid for a short window
// after delivery.
type TextMessageEvent struct {
	ReplyToken string
	Text       string
}
