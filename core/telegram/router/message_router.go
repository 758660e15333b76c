package router

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/pagerbot/core/events"
	tg "github.com/m3rciful/pagerbot/core/telegram"
	tghelpers "github.com/m3rciful/pagerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Publisher receives text messages before command routing.
// It reports how many waiters consumed the event.
type Publisher interface {
	Publish(ev events.Event) int
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
// Every text is published first; a message consumed by a waiter (such as a
// page number prompt) is not routed further.
func TextRoutes(pub Publisher, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if pub != nil {
			if n := pub.Publish(MessageEvent(c)); n > 0 {
				logHandlerSummary(c, "consumed", start, "ok", "ok", nil, slog.Int("waiters", n))
				return nil
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: handler},
		{Endpoint: tele.OnDocument, Handler: docHandler},
	}
}

// MessageEvent converts the message behind c into a hub event.
func MessageEvent(c tele.Context) events.Event {
	ev := events.Event{
		Kind:      events.MessageCreated,
		ChannelID: tghelpers.ChatID(c),
		UserID:    tghelpers.SenderID(c),
		Content:   c.Text(),
	}
	if m := c.Message(); m != nil {
		ev.MessageID = strconv.Itoa(m.ID)
	}
	return ev
}
