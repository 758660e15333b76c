package paginator

import (
	"context"

	"github.com/m3rciful/pagerbot/core/events"
)

// EmbedField is a single name/value row of an embed.
type EmbedField struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Inline bool   `json:"inline,omitempty" yaml:"inline"`
}

// EmbedMedia points an image-like slot at a URL.
type EmbedMedia struct {
	URL string `json:"url" yaml:"url"`
}

// EmbedAuthor is the author line shown above the title.
type EmbedAuthor struct {
	Name    string `json:"name" yaml:"name"`
	URL     string `json:"url,omitempty" yaml:"url"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url"`
}

// EmbedFooter is the footer line shown under the panel.
type EmbedFooter struct {
	Text    string `json:"text" yaml:"text"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url"`
}

// Embed is one page of a paginated document. Platform adapters translate it
// into their own rich message representation.
type Embed struct {
	Title       string       `json:"title,omitempty" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description"`
	URL         string       `json:"url,omitempty" yaml:"url"`
	Color       int          `json:"color,omitempty" yaml:"color"`
	Fields      []EmbedField `json:"fields,omitempty" yaml:"fields"`
	Image       *EmbedMedia  `json:"image,omitempty" yaml:"image"`
	Thumbnail   *EmbedMedia  `json:"thumbnail,omitempty" yaml:"thumbnail"`
	Author      *EmbedAuthor `json:"author,omitempty" yaml:"author"`
	Footer      *EmbedFooter `json:"footer,omitempty" yaml:"footer"`
}

// Clone returns a deep copy of e. A nil embed clones to nil.
func (e *Embed) Clone() *Embed {
	if e == nil {
		return nil
	}
	out := *e
	if e.Fields != nil {
		out.Fields = append([]EmbedField(nil), e.Fields...)
	}
	if e.Image != nil {
		img := *e.Image
		out.Image = &img
	}
	if e.Thumbnail != nil {
		th := *e.Thumbnail
		out.Thumbnail = &th
	}
	if e.Author != nil {
		a := *e.Author
		out.Author = &a
	}
	if e.Footer != nil {
		f := *e.Footer
		out.Footer = &f
	}
	return &out
}

// File is an attachment sent together with a page.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// URI returns the reference used by embeds to point at the uploaded file.
func (f *File) URI() string {
	return "attachment://" + f.Name
}

// Page is the rendered pair shown in the bound message.
type Page struct {
	Embed *Embed
	File  *File
}

// MessageRef identifies a message on the chat platform.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// IsZero reports whether the reference points at nothing.
func (r MessageRef) IsZero() bool {
	return r.MessageID == ""
}

// Messenger is the subset of a chat platform client used by sessions.
type Messenger interface {
	Send(ctx context.Context, channelID string, page Page) (MessageRef, error)
	// Edit replaces the embed of msg. A nil page.File keeps the current attachment.
	Edit(ctx context.Context, msg MessageRef, page Page) error
	Delete(ctx context.Context, msg MessageRef) error
	AddReaction(ctx context.Context, msg MessageRef, symbol string) error
	ClearReactions(ctx context.Context, msg MessageRef) error
	SendText(ctx context.Context, channelID, text string) (MessageRef, error)
	DeleteMessages(ctx context.Context, channelID string, msgs []MessageRef) error
}

// Releaser is implemented by messengers that keep state per bound message.
// A session calls Release once it no longer drives msg, including the
// single page path that never attaches controls.
type Releaser interface {
	Release(msg MessageRef)
}

// EventSource blocks until an event of the given kind satisfies match or ctx ends.
type EventSource interface {
	Wait(ctx context.Context, kind events.Kind, match func(events.Event) bool) (events.Event, error)
}

// Invocation carries who asked for the document and where to show it.
type Invocation struct {
	Owner     string
	Channel   string
	Messenger Messenger
	Events    EventSource
}
