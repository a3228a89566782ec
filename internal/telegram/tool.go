package telegram

import "strings"

// Markdown 模式下需要转义的字符
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// escapeMarkdown 转义 Markdown 格式中的特殊字符
func escapeMarkdown(input string) string {
	return markdownEscaper.Replace(input)
}

// EscapeMarkdown 供外部拼接消息时转义策略名等用户内容
func EscapeMarkdown(input string) string {
	return escapeMarkdown(input)
}
