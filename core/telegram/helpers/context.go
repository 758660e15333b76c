package helpers

import (
	"context"
	"strconv"

	"github.com/m3rciful/pagerbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	// Platform tags Telegram events in logs and request ids.
	Platform = "tg"
)

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom telegram context if previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx, true
	}
	return nil, false
}

// MetaOf extracts the log metadata of the update behind c.
func MetaOf(c tele.Context) logger.Meta {
	meta := logger.Meta{Platform: Platform}
	if upd := c.Update(); upd.ID != 0 {
		meta.EventID = strconv.Itoa(upd.ID)
	}
	if chat := c.Chat(); chat != nil {
		meta.ChannelID = strconv.FormatInt(chat.ID, 10)
	}
	if user := c.Sender(); user != nil {
		meta.UserID = strconv.FormatInt(user.ID, 10)
	}
	return meta
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID and update metadata for consistent service logging.
func BuildContext(c tele.Context) context.Context {
	return BuildContextFrom(context.Background(), c)
}

// BuildContextFrom is BuildContext with an explicit parent.
func BuildContextFrom(parent context.Context, c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	meta := MetaOf(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(meta)
	}

	ctx := logger.WithRID(parent, rid)
	ctx = logger.WithMeta(ctx, meta)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// ChatID renders the chat of c as a channel identifier.
func ChatID(c tele.Context) string {
	if chat := c.Chat(); chat != nil {
		return strconv.FormatInt(chat.ID, 10)
	}
	return ""
}

// SenderID renders the sender of c as a user identifier.
func SenderID(c tele.Context) string {
	if user := c.Sender(); user != nil {
		return strconv.FormatInt(user.ID, 10)
	}
	return ""
}
