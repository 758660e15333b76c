package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pagerbot/core/paginator"
)

func TestEscapeMarkdown(t *testing.T) {
	v2, err := EscapeMarkdown("a_b*c.d!(e)", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\*c\.d\!\(e\)`, v2)

	v1, err := EscapeMarkdown("a_b*c.d", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\*c.d`, v1)

	_, err = EscapeMarkdown("x", 3)
	require.Error(t, err)
}

func TestLinkV2(t *testing.T) {
	assert.Equal(t, `[a\.b](https://x.io/p\)q)`, LinkV2("a.b", "https://x.io/p)q"))
	assert.Equal(t, `plain\-text`, LinkV2("plain-text", " "))
}

func TestRenderEmbed(t *testing.T) {
	e := &paginator.Embed{
		Title:       "Guide 1.0",
		URL:         "https://example.com",
		Description: "Hello!",
		Fields:      []paginator.EmbedField{{Name: "/read", Value: "open a doc"}},
		Image:       &paginator.EmbedMedia{URL: "attachment://cover.png"},
		Author:      &paginator.EmbedAuthor{Name: "Bot"},
		Footer:      &paginator.EmbedFooter{Text: "page 1"},
	}
	got := RenderEmbed(e, TextLimit)
	assert.Equal(t, "_Bot_\n\n*[Guide 1\\.0](https://example.com)*\n\nHello\\!\n\n*/read*\nopen a doc\n\n_page 1_", got)
	assert.Empty(t, RenderEmbed(nil, TextLimit))
}

func TestRenderEmbedRemoteImage(t *testing.T) {
	got := RenderEmbed(&paginator.Embed{Image: &paginator.EmbedMedia{URL: "https://img.io/a.png"}}, TextLimit)
	assert.Equal(t, "[image](https://img.io/a.png)", got)
}

func TestRenderEmbedTruncatesDescription(t *testing.T) {
	e := &paginator.Embed{Title: "T", Description: strings.Repeat("word ", 400), Footer: &paginator.EmbedFooter{Text: "end"}}
	got := RenderEmbed(e, CaptionLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), CaptionLimit)
	assert.True(t, strings.HasPrefix(got, "*T*"))
	assert.True(t, strings.HasSuffix(got, "_end_"))
	assert.Contains(t, got, ellipsis)
}

func TestRenderEmbedDropsTrailingBlocks(t *testing.T) {
	e := &paginator.Embed{Title: "T", Fields: []paginator.EmbedField{{Name: "n", Value: strings.Repeat("v", 50)}}}
	got := RenderEmbed(e, 10)
	assert.Equal(t, "*T*", got)
}
