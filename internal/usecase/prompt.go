package usecase

import (
	"strings"

	"line-companion/internal/domain"
)

// defaultSystemPrompt is used when no SYSTEM_PROMPT configuration is provided.
const defaultSystemPrompt = "你是一位溫暖、有同理心的聊天夥伴，使用繁體中文回覆。" +
	"請以簡短、自然的語氣回應，專注於傾聽與陪伴，不要提供醫療診斷或藥物建議。"

// buildMessages assembles the completion request: one system message with the
// configured prompt, one user message with the inbound text.
func buildMessages(systemPrompt, userText string) []domain.ChatMessage {
	prompt := strings.TrimSpace(systemPrompt)
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return []domain.ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: userText},
	}
}
