package discord

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/pagerbot/core/paginator"
)

// Discord embed limits.
const (
	titleLimit       = 256
	descriptionLimit = 4096
	fieldNameLimit   = 256
	fieldValueLimit  = 1024
	footerLimit      = 2048
	maxFields        = 25
)

// ToEmbed converts a page into a Discord embed, truncating oversized parts.
func ToEmbed(e *paginator.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		URL:         e.URL,
		Type:        discordgo.EmbedTypeRich,
		Title:       truncate(e.Title, titleLimit),
		Description: truncate(e.Description, descriptionLimit),
		Color:       e.Color,
	}
	for i, f := range e.Fields {
		if i == maxFields {
			break
		}
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   truncate(f.Name, fieldNameLimit),
			Value:  truncate(f.Value, fieldValueLimit),
			Inline: f.Inline,
		})
	}
	if e.Image != nil {
		out.Image = &discordgo.MessageEmbedImage{URL: e.Image.URL}
	}
	if e.Thumbnail != nil {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail.URL}
	}
	if e.Author != nil {
		out.Author = &discordgo.MessageEmbedAuthor{
			Name:    truncate(e.Author.Name, titleLimit),
			URL:     e.Author.URL,
			IconURL: e.Author.IconURL,
		}
	}
	if e.Footer != nil {
		out.Footer = &discordgo.MessageEmbedFooter{
			Text:    truncate(e.Footer.Text, footerLimit),
			IconURL: e.Footer.IconURL,
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
