package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"line-companion/internal/domain"
)

type chatResult struct {
	answer string
	err    error
}

type mockLLM struct {
	responses []chatResult
	models    []string
	messages  [][]domain.ChatMessage
}

func (m *mockLLM) Chat(_ context.Context, model string, msgs []domain.ChatMessage) (string, error) {
	m.models = append(m.models, model)
	m.messages = append(m.messages, msgs)
	idx := len(m.models) - 1
	if idx >= len(m.responses) {
		return "", errors.New("no llm response configured")
	}
	return m.responses[idx].answer, m.responses[idx].err
}

type mockSender struct {
	err        error
	calls      int
	replyToken string
	text       string
}

func (m *mockSender) ReplyText(_ context.Context, replyToken, text string) error {
	m.calls++
	m.replyToken = replyToken
	m.text = text
	return m.err
}

func newTestService(t *testing.T, llm LLMClient, sender ReplySender) *ReplyService {
	t.Helper()
	svc, err := NewReplyService(llm, sender, "gpt-4o-mini", "gpt-3.5-turbo", "", time.Second)
	require.NoError(t, err)
	return svc
}

func event(text string) domain.TextMessageEvent {
	return domain.TextMessageEvent{ReplyToken: "tok-1", Text: text}
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, code, uerr.Code)
	require.Equal(t, reason, uerr.Reason)
}

func TestNewReplyService_Validation(t *testing.T) {
	sender := &mockSender{}
	llm := &mockLLM{}

	_, err := NewReplyService(nil, sender, "m", "f", "", time.Second)
	require.Error(t, err)
	_, err = NewReplyService(llm, nil, "m", "f", "", time.Second)
	require.Error(t, err)
	_, err = NewReplyService(llm, sender, " ", "f", "", time.Second)
	require.Error(t, err)

	// fallback defaults to the primary model when unset
	svc, err := NewReplyService(llm, sender, "m", "", "", 0)
	require.NoError(t, err)
	require.Equal(t, "m", svc.fallbackModel)
	require.Equal(t, defaultCompletionTimeout, svc.timeout)
}

func TestHandleTextMessage_CrisisShortCircuits(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{{answer: "should not be used"}}}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("最近壓力好大，我想死")))
	require.Empty(t, llm.models, "crisis messages must not reach the completion API")
	require.Equal(t, 1, sender.calls)
	require.Equal(t, CrisisMessage, sender.text)
	require.Equal(t, "tok-1", sender.replyToken)
}

func TestHandleTextMessage_CrisisKeywordAlone(t *testing.T) {
	llm := &mockLLM{}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("想死")))
	require.Empty(t, llm.models)
	require.Equal(t, CrisisMessage, sender.text)
}

func TestHandleTextMessage_HappyPath(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{{answer: "你好！最近怎麼樣？"}}}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("你好")))
	require.Equal(t, []string{"gpt-4o-mini"}, llm.models)
	require.Equal(t, "你好！最近怎麼樣？", sender.text)

	msgs := llm.messages[0]
	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].Role)
	require.Equal(t, defaultSystemPrompt, msgs[0].Content)
	require.Equal(t, "user", msgs[1].Role)
	require.Equal(t, "你好", msgs[1].Content)
}

func TestHandleTextMessage_CustomSystemPrompt(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{{answer: "ok"}}}
	sender := &mockSender{}
	svc, err := NewReplyService(llm, sender, "gpt-4o-mini", "gpt-3.5-turbo", "你是一隻貓。", time.Second)
	require.NoError(t, err)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("你好")))
	require.Equal(t, "你是一隻貓。", llm.messages[0][0].Content)
}

func TestHandleTextMessage_FallbackModelUsed(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{
		{err: errors.New("primary down")},
		{answer: "fallback answer"},
	}}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("你好")))
	require.Equal(t, []string{"gpt-4o-mini", "gpt-3.5-turbo"}, llm.models)
	require.Equal(t, "fallback answer", sender.text)
}

func TestHandleTextMessage_BothModelsFail(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{
		{err: errors.New("primary down")},
		{err: errors.New("fallback down")},
	}}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("你好")))
	require.Equal(t, ApologyMessage, sender.text)
}

func TestHandleTextMessage_EmptyCompletionTriggersFallback(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{
		{answer: "   "},
		{answer: "real answer"},
	}}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	require.NoError(t, svc.HandleTextMessage(context.Background(), event("你好")))
	require.Equal(t, "real answer", sender.text)
}

func TestHandleTextMessage_SendFailure(t *testing.T) {
	llm := &mockLLM{responses: []chatResult{{answer: "hi"}}}
	sender := &mockSender{err: errors.New("reply token expired")}
	svc := newTestService(t, llm, sender)

	err := svc.HandleTextMessage(context.Background(), event("你好"))
	expectError(t, err, ErrorSend, "reply_send_failed")
}

func TestHandleTextMessage_EmptyText(t *testing.T) {
	llm := &mockLLM{}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	err := svc.HandleTextMessage(context.Background(), event("   "))
	expectError(t, err, ErrorInvalidInput, "empty_message_text")
	require.Zero(t, sender.calls)
	require.Empty(t, llm.models)
}

func TestHandleTextMessage_EmptyReplyToken(t *testing.T) {
	llm := &mockLLM{}
	sender := &mockSender{}
	svc := newTestService(t, llm, sender)

	err := svc.HandleTextMessage(context.Background(), domain.TextMessageEvent{Text: "你好"})
	expectError(t, err, ErrorInvalidInput, "empty_reply_token")
	require.Zero(t, sender.calls)
}
