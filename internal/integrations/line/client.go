package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxReplyTextLen is the platform limit for a single text message.
const maxReplyTextLen = 5000

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("line: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused Messaging API client that only knows how to answer an
// inbound event through its reply token.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a reply client authenticated with the channel access token.
func NewClient(accessToken string, opts ...Option) (*Client, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.New("line: access token must not be empty")
	}
	c := &Client{
		baseURL:     "https://api.line.me",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		accessToken: accessToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func replyURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.line.me"
	}
	return base + "/v2/bot/message/reply"
}

// ReplyText sends a single text message through the one-time reply token.
// Text beyond the platform limit is truncated.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token must not be empty")
	}
	if runes := []rune(text); len(runes) > maxReplyTextLen {
		text = string(runes[:maxReplyTextLen])
	}

	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line: marshal reply request: %w", err)
	}

	url := replyURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("line: reply request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
