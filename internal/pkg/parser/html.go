package parser

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripTagsPolicy *bluemonday.Policy

func init() {
	stripTagsPolicy = bluemonday.StripTagsPolicy()
}

// StripHTML 接受一个HTML字符串，返回一个去除了所有标签的纯文本字符串。
func StripHTML(htmlContent string) string {
	return stripTagsPolicy.Sanitize(htmlContent)
}

// Summary 生成公告列表使用的纯文本摘要
func Summary(htmlContent string, maxLength int) string {
	text := strings.Join(strings.Fields(StripHTML(htmlContent)), " ")
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}
