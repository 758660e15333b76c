package pager

import (
	"strconv"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/paginator"
	"github.com/m3rciful/pagerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/pagerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	// InactiveText answers presses that no session consumed.
	InactiveText = "These controls are not active for you."
	// BusyText answers owner presses that arrive while the page is still changing.
	BusyText     = "One moment, still turning the page."
)

// Publisher receives control presses.
type Publisher interface {
	Publish(ev events.Event) int
}

// Owners reports who drives the live session bound to a message.
type Owners interface {
	OwnerOf(ref paginator.MessageRef) (string, bool)
}

// ControlHandler handles callbacks with unique callbacks.PagerUnique by
// publishing them as reactions. Register it on the callback registry.
// owners may be nil; then every unconsumed press is answered with InactiveText.
func ControlHandler(pub Publisher, owners Owners) tele.HandlerFunc {
	return func(c tele.Context) error {
		symbol := callbacks.CallbackPayload(c)
		if symbol == "" {
			return c.Respond(&tele.CallbackResponse{Text: InactiveText})
		}
		ev := ControlEvent(c, symbol)
		if pub.Publish(ev) > 0 {
			return c.Respond()
		}
		if owners != nil {
			ref := paginator.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID}
			if who, live := owners.OwnerOf(ref); live && who == ev.UserID {
				return c.Respond(&tele.CallbackResponse{Text: BusyText})
			}
		}
		return c.Respond(&tele.CallbackResponse{Text: InactiveText})
	}
}

// ControlEvent converts a control press into a hub event.
func ControlEvent(c tele.Context, symbol string) events.Event {
	ev := events.Event{
		Kind:      events.ReactionAdded,
		ChannelID: tghelpers.ChatID(c),
		UserID:    tghelpers.SenderID(c),
		Symbol:    symbol,
	}
	if cb := c.Callback(); cb != nil && cb.Message != nil {
		ev.MessageID = strconv.Itoa(cb.Message.ID)
	}
	return ev
}
