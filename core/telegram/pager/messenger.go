// Package pager connects pagination sessions to Telegram. Controls are
// rendered as inline keyboard buttons instead of reactions.
package pager

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
	"github.com/m3rciful/pagerbot/core/telegram/format"
	"github.com/m3rciful/pagerbot/core/telegram/keyboard"
	"github.com/m3rciful/pagerbot/core/telegram/netutil"
	"github.com/m3rciful/pagerbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// API is the subset of *tele.Bot the messenger calls.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	EditCaption(msg tele.Editable, caption string, opts ...interface{}) (*tele.Message, error)
	EditMedia(msg tele.Editable, media tele.Inputtable, opts ...interface{}) (*tele.Message, error)
	EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error)
	Delete(msg tele.Editable) error
	DeleteMany(msgs []tele.Editable) error
}

var (
	_ paginator.Messenger = (*Messenger)(nil)
	_ paginator.Releaser  = (*Messenger)(nil)
)

// Messenger implements paginator.Messenger on top of the Bot API.
type Messenger struct {
	api  API
	disp *sender.Dispatcher

	mu   sync.Mutex
	msgs map[paginator.MessageRef]*tracked
}

// tracked is what Telegram needs remembered about a bound message: edits must
// resend the keyboard, and media messages are edited through their caption.
type tracked struct {
	mu       sync.Mutex
	media    bool
	controls []string
}

// New returns a messenger. disp may be nil, in which case calls run inline without retries.
func New(api API, disp *sender.Dispatcher) *Messenger {
	return &Messenger{api: api, disp: disp, msgs: make(map[paginator.MessageRef]*tracked)}
}

// Send posts page to the chat channelID.
func (m *Messenger) Send(ctx context.Context, channelID string, page paginator.Page) (paginator.MessageRef, error) {
	chatID, err := parseChat(channelID)
	if err != nil {
		return paginator.MessageRef{}, err
	}
	what, endpoint := content(page)

	var sent *tele.Message
	err = m.do(ctx, "send.page", endpoint, func() error {
		var sendErr error
		sent, sendErr = m.api.Send(&tele.Chat{ID: chatID}, what, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
		return sendErr
	})
	if err != nil {
		return paginator.MessageRef{}, err
	}
	ref := paginator.MessageRef{ChannelID: channelID, MessageID: strconv.Itoa(sent.ID)}
	m.mu.Lock()
	m.msgs[ref] = &tracked{media: page.File != nil}
	m.mu.Unlock()
	return ref, nil
}

// Edit replaces the page shown in msg. A nil page.File keeps the current attachment.
// Text messages cannot gain an attachment on Telegram; the file is dropped then.
func (m *Messenger) Edit(ctx context.Context, msg paginator.MessageRef, page paginator.Page) error {
	ed, err := editable(msg)
	if err != nil {
		return err
	}
	t := m.track(msg)
	t.mu.Lock()
	defer t.mu.Unlock()

	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdownV2, ReplyMarkup: keyboard.PagerControls(t.controls)}
	switch {
	case t.media && page.File != nil:
		media, _ := content(page)
		err = m.do(ctx, "edit.media", "editMessageMedia", func() error {
			_, e := m.api.EditMedia(ed, media.(tele.Inputtable), opts)
			return e
		})
	case t.media:
		caption := render(page.Embed, format.CaptionLimit)
		err = m.do(ctx, "edit.caption", "editMessageCaption", func() error {
			_, e := m.api.EditCaption(ed, caption, opts)
			return e
		})
	default:
		if page.File != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "pager.file_dropped",
				slog.String("msg_id", msg.MessageID),
				slog.String("file", page.File.Name),
			)
		}
		text := render(page.Embed, format.TextLimit)
		err = m.do(ctx, "edit.text", "editMessageText", func() error {
			_, e := m.api.Edit(ed, text, opts)
			return e
		})
	}
	if netutil.NotModified(err) {
		return nil
	}
	return err
}

// Delete removes msg. The call is queued on the dispatcher when one is set.
func (m *Messenger) Delete(ctx context.Context, msg paginator.MessageRef) error {
	ed, err := editable(msg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.msgs, msg)
	m.mu.Unlock()
	return m.enqueue(ctx, "delete", "deleteMessage", func() error {
		return m.api.Delete(ed)
	})
}

// AddReaction appends a control button to msg.
func (m *Messenger) AddReaction(ctx context.Context, msg paginator.MessageRef, symbol string) error {
	ed, err := editable(msg)
	if err != nil {
		return err
	}
	t := m.track(msg)
	t.mu.Lock()
	defer t.mu.Unlock()

	controls := append(append([]string(nil), t.controls...), symbol)
	err = m.do(ctx, "controls.add", "editMessageReplyMarkup", func() error {
		_, e := m.api.EditReplyMarkup(ed, keyboard.PagerControls(controls))
		return e
	})
	if err != nil && !netutil.NotModified(err) {
		return err
	}
	t.controls = controls
	return nil
}

// ClearReactions removes every control button from msg.
func (m *Messenger) ClearReactions(ctx context.Context, msg paginator.MessageRef) error {
	ed, err := editable(msg)
	if err != nil {
		return err
	}
	t := m.track(msg)
	t.mu.Lock()
	t.controls = nil
	t.mu.Unlock()

	m.mu.Lock()
	delete(m.msgs, msg)
	m.mu.Unlock()

	err = m.do(ctx, "controls.clear", "editMessageReplyMarkup", func() error {
		_, e := m.api.EditReplyMarkup(ed, nil)
		return e
	})
	if netutil.NotModified(err) {
		return nil
	}
	return err
}

// SendText posts plain text to channelID.
func (m *Messenger) SendText(ctx context.Context, channelID, text string) (paginator.MessageRef, error) {
	chatID, err := parseChat(channelID)
	if err != nil {
		return paginator.MessageRef{}, err
	}
	var sent *tele.Message
	err = m.do(ctx, "send.text", "sendMessage", func() error {
		var sendErr error
		sent, sendErr = m.api.Send(&tele.Chat{ID: chatID}, text)
		return sendErr
	})
	if err != nil {
		return paginator.MessageRef{}, err
	}
	return paginator.MessageRef{ChannelID: channelID, MessageID: strconv.Itoa(sent.ID)}, nil
}

// DeleteMessages removes msgs from channelID in one call.
func (m *Messenger) DeleteMessages(ctx context.Context, channelID string, msgs []paginator.MessageRef) error {
	if len(msgs) == 0 {
		return nil
	}
	eds := make([]tele.Editable, 0, len(msgs))
	for _, ref := range msgs {
		if ref.ChannelID == "" {
			ref.ChannelID = channelID
		}
		ed, err := editable(ref)
		if err != nil {
			return err
		}
		eds = append(eds, ed)
	}
	return m.enqueue(ctx, "delete.many", "deleteMessages", func() error {
		return m.api.DeleteMany(eds)
	})
}

// Release forgets msg once its session no longer drives it.
func (m *Messenger) Release(msg paginator.MessageRef) {
	m.mu.Lock()
	delete(m.msgs, msg)
	m.mu.Unlock()
}

// Tracked returns the number of messages the messenger keeps state for.
func (m *Messenger) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func (m *Messenger) track(ref paginator.MessageRef) *tracked {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.msgs[ref]
	if !ok {
		t = &tracked{}
		m.msgs[ref] = t
	}
	return t
}

func (m *Messenger) do(ctx context.Context, action, endpoint string, run func() error) error {
	if m.disp == nil {
		return run()
	}
	return m.disp.Do(ctx, action, endpoint, run)
}

func (m *Messenger) enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if m.disp == nil {
		return run()
	}
	if err := m.disp.Enqueue(ctx, action, endpoint, run); err != nil {
		return m.disp.Do(ctx, action, endpoint, run)
	}
	return nil
}

// content converts page into what tele.Bot.Send accepts and names the endpoint used.
func content(page paginator.Page) (interface{}, string) {
	if page.File == nil {
		return render(page.Embed, format.TextLimit), "sendMessage"
	}
	caption := render(page.Embed, format.CaptionLimit)
	file := tele.FromReader(bytes.NewReader(page.File.Data))
	if strings.HasPrefix(page.File.ContentType, "image/") {
		return &tele.Photo{File: file, Caption: caption}, "sendPhoto"
	}
	return &tele.Document{
		File:     file,
		Caption:  caption,
		FileName: page.File.Name,
		MIME:     page.File.ContentType,
	}, "sendDocument"
}

func render(e *paginator.Embed, limit int) string {
	if text := format.RenderEmbed(e, limit); text != "" {
		return text
	}
	return format.EscapeV2("…")
}

func parseChat(channelID string) (int64, error) {
	id, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: invalid chat id %q: %w", channelID, err)
	}
	return id, nil
}

func editable(ref paginator.MessageRef) (tele.StoredMessage, error) {
	chatID, err := parseChat(ref.ChannelID)
	if err != nil {
		return tele.StoredMessage{}, err
	}
	return tele.StoredMessage{MessageID: ref.MessageID, ChatID: chatID}, nil
}
