package usecase

import "strings"

// crisisKeywords is the fixed substring list that routes a message to the
// crisis response instead of the completion API. Matching is case-sensitive
// and deliberately naive; a keyword appearing inside an unrelated word still
// triggers the safety reply.
var crisisKeywords = []string{
	"自殺",
	"想死",
	"不想活",
	"輕生",
	"活不下去",
	"結束生命",
	"自我了斷",
	"自殘",
}

// CrisisMessage is returned verbatim whenever a crisis keyword is present.
const CrisisMessage = "聽起來你現在真的很辛苦，謝謝你願意說出來，你並不孤單。" +
	"如果需要有人立刻陪你聊聊，可以撥打安心專線 1925（24 小時）、生命線 1995 或張老師專線 1980。" +
	"如果你有立即的危險，請直接撥打 119 或前往最近的急診室。"

// ApologyMessage is returned when both completion attempts fail.
const ApologyMessage = "抱歉，我這邊暫時出了點狀況，沒辦法好好回覆你，請稍後再試一次。"

func containsCrisisKeyword(text string) bool {
	for _, kw := range crisisKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
