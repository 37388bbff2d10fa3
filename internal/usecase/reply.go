package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"line-companion/internal/domain"
)

const defaultCompletionTimeout = 15 * time.Second

// LLMClient performs a single chat completion against one model.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// ReplySender sends a text message through a one-time reply token.
type ReplySender interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// ReplyService composes and sends the answer for a single inbound text event.
type ReplyService struct {
	llm           LLMClient
	sender        ReplySender
	model         string
	fallbackModel string
	systemPrompt  string
	timeout       time.Duration
}

func NewReplyService(llm LLMClient, sender ReplySender, model, fallbackModel, systemPrompt string, timeout time.Duration) (*ReplyService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if sender == nil {
		return nil, errors.New("usecase: reply sender must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	fallbackModel = strings.TrimSpace(fallbackModel)
	if fallbackModel == "" {
		fallbackModel = model
	}
	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}
	return &ReplyService{
		llm:           llm,
		sender:        sender,
		model:         model,
		fallbackModel: fallbackModel,
		systemPrompt:  systemPrompt,
		timeout:       timeout,
	}, nil
}

// HandleTextMessage composes a reply for one event and sends it back through
// the event's reply token. Composition never fails from the caller's point of
// view; only a send failure is reported, and the caller is expected to log
// and swallow it.
func (s *ReplyService) HandleTextMessage(ctx context.Context, ev domain.TextMessageEvent) error {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return newError(ErrorInvalidInput, "empty_message_text", nil)
	}
	if strings.TrimSpace(ev.ReplyToken) == "" {
		return newError(ErrorInvalidInput, "empty_reply_token", nil)
	}

	reply := s.composeReply(ctx, text)

	if err := s.sender.ReplyText(ctx, ev.ReplyToken, reply); err != nil {
		return newError(ErrorSend, "reply_send_failed", err)
	}
	return nil
}

// composeReply routes the text: crisis keywords short-circuit to the fixed
// safety message with no completion call; otherwise the primary model is
// tried, then the fallback model once, then the fixed apology.
func (s *ReplyService) composeReply(ctx context.Context, text string) string {
	if containsCrisisKeyword(text) {
		return CrisisMessage
	}

	messages := buildMessages(s.systemPrompt, text)

	reply, err := s.chatWithTimeout(ctx, s.model, messages)
	if err == nil {
		return reply
	}
	slog.Warn("primary completion failed, trying fallback model",
		"model", s.model, "fallback_model", s.fallbackModel, "err", err)

	reply, err = s.chatWithTimeout(ctx, s.fallbackModel, messages)
	if err == nil {
		return reply
	}
	slog.Error("fallback completion failed, using apology",
		"fallback_model", s.fallbackModel, "err", err)
	return ApologyMessage
}

// chatWithTimeout gives each model attempt its own timeout budget.
func (s *ReplyService) chatWithTimeout(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.llm.Chat(cctx, model, messages)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("usecase: empty completion text")
	}
	return reply, nil
}
