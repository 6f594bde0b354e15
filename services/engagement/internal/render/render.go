// Package render turns visitor-supplied comment text into safe HTML.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func init() {
	// Comments link out; they never embed.
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	ugc.RequireNoFollowOnLinks(true)
	ugc.RequireNoReferrerOnLinks(true)
}

// Markdown renders comment content as sanitized HTML.
func Markdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return string(ugc.SanitizeBytes(buf.Bytes()))
}

// PlainText strips every tag from s, e.g. an author name.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
