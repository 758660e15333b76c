package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile("([" + regexp.QuoteMeta(mdV2Specials) + "])")
	// Inside the (...) part of an inline link only ")" and "\" need escaping.
	linkRe = regexp.MustCompile(`([)\\])`)
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV2 escapes text for MarkdownV2.
func EscapeV2(text string) string {
	return mdV2Re.ReplaceAllString(text, `\$1`)
}

// LinkV2 renders a MarkdownV2 inline link. An empty url yields the escaped label.
func LinkV2(label, url string) string {
	if strings.TrimSpace(url) == "" {
		return EscapeV2(label)
	}
	return "[" + EscapeV2(label) + "](" + linkRe.ReplaceAllString(url, `\$1`) + ")"
}
