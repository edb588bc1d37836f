package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer 把用户写的 Markdown 转成可以直接下发给前端的 HTML
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithXHTML(),
			),
		),
		policy: policy,
	}
}

// Render 解析失败时退化为对原文做清洗
func (r *Renderer) Render(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return r.policy.Sanitize(source)
	}
	return EnhanceHTMLContent(string(r.policy.SanitizeBytes(buf.Bytes())))
}

var defaultRenderer = NewRenderer()

func RenderMarkdown(source string) string {
	return defaultRenderer.Render(source)
}
