package ui

import (
	"strings"

	tghelpers "github.com/m3rciful/pagerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or page number replies.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Replies is the FallbackProvider answering with fixed texts.
type Replies struct {
	UnknownCommand     string
	UnexpectedDocument string
	StaleButton        string
}

var _ FallbackProvider = Replies{}

// DefaultReplies returns the built-in English replies.
func DefaultReplies() Replies {
	return Replies{
		UnknownCommand:     "Unknown command. Send /help to see what I can do.",
		UnexpectedDocument: "I only read documents from my library. Send /docs to list them.",
		StaleButton:        "This button has expired.",
	}
}

// UnknownText answers unknown slash commands. Plain chatter is ignored so
// group conversations are not flooded.
func (r Replies) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		if !strings.HasPrefix(strings.TrimSpace(c.Text()), "/") || r.UnknownCommand == "" {
			return nil
		}
		return tghelpers.SendText(c, r.UnknownCommand)
	}
}

// UnknownDocument answers file uploads.
func (r Replies) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		if r.UnexpectedDocument == "" {
			return nil
		}
		return tghelpers.SendText(c, r.UnexpectedDocument)
	}
}

// UnknownCallback answers presses of buttons nothing is registered for.
func (r Replies) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: r.StaleButton})
	}
}
