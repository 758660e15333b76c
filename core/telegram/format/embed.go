package format

import (
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/pagerbot/core/paginator"
)

const (
	// TextLimit is the maximum length of a Telegram text message.
	TextLimit = 4096
	// CaptionLimit is the maximum length of a media caption.
	CaptionLimit = 1024

	ellipsis = "…"
)

// RenderEmbed renders e as MarkdownV2 text no longer than limit runes.
// The description is shortened first when the panel does not fit.
func RenderEmbed(e *paginator.Embed, limit int) string {
	if e == nil {
		return ""
	}
	desc := e.Description
	out := renderEmbed(e, desc)
	for utf8.RuneCountInString(out) > limit && desc != "" {
		over := utf8.RuneCountInString(out) - limit
		runes := []rune(strings.TrimSuffix(desc, ellipsis))
		keep := len(runes) - over - 1
		if keep <= 0 {
			desc = ""
		} else {
			desc = string(runes[:keep]) + ellipsis
		}
		out = renderEmbed(e, desc)
	}
	if utf8.RuneCountInString(out) > limit {
		out = truncateLines(out, limit)
	}
	return out
}

func renderEmbed(e *paginator.Embed, desc string) string {
	var parts []string
	if e.Author != nil && e.Author.Name != "" {
		parts = append(parts, "_"+LinkV2(e.Author.Name, e.Author.URL)+"_")
	}
	if e.Title != "" {
		parts = append(parts, "*"+LinkV2(e.Title, e.URL)+"*")
	}
	if desc != "" {
		parts = append(parts, EscapeV2(desc))
	}
	for _, f := range e.Fields {
		parts = append(parts, "*"+EscapeV2(f.Name)+"*\n"+EscapeV2(f.Value))
	}
	if e.Image != nil && isRemote(e.Image.URL) {
		parts = append(parts, LinkV2("image", e.Image.URL))
	}
	if e.Footer != nil && e.Footer.Text != "" {
		parts = append(parts, "_"+EscapeV2(e.Footer.Text)+"_")
	}
	return strings.Join(parts, "\n\n")
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

// truncateLines drops whole trailing blocks so no escape sequence is split.
func truncateLines(s string, limit int) string {
	blocks := strings.Split(s, "\n\n")
	for len(blocks) > 1 && utf8.RuneCountInString(strings.Join(blocks, "\n\n")) > limit {
		blocks = blocks[:len(blocks)-1]
	}
	out := strings.Join(blocks, "\n\n")
	if utf8.RuneCountInString(out) > limit {
		return EscapeV2(ellipsis)
	}
	return out
}
