// internal/pkg/parser/markdown.go
package parser

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var mdParser goldmark.Markdown
var policy *bluemonday.Policy

func init() {
	// 公告只需要常用排版，不启用脚注和任务列表
	mdParser = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(), // 原始 HTML 交给 bluemonday 清理
		),
	)

	policy = bluemonday.UGCPolicy()
	// 生日公告会带角色立绘
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div", "p", "span", "img")
	policy.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
}

// MarkdownToHTML 将 Markdown 字符串转换为安全的 HTML 字符串
func MarkdownToHTML(mdContent string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(mdContent), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// SanitizeHTML 清理已经是 HTML 的内容
func SanitizeHTML(htmlContent string) string {
	return policy.Sanitize(htmlContent)
}
