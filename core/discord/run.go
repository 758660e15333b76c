package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	coreconfig "github.com/m3rciful/pagerbot/core/config"
	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/logger"
)

// Platform tags Discord events in logs and request ids.
const Platform = "dc"

// Intents are the gateway intents the bot needs: messages and reactions in
// guilds and DMs, plus message content for prefix commands and page numbers.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessageReactions |
	discordgo.IntentsMessageContent

// AdminRejectText answers admin commands sent by other users.
const AdminRejectText = "Only the bot admin can do that."

// Publisher receives gateway events. It reports how many waiters consumed the event.
type Publisher interface {
	Publish(ev events.Event) int
}

// Runtime exposes runtime components to command handlers and lifecycle hooks.
type Runtime struct {
	Session   *discordgo.Session
	Messenger *Messenger
	Router    *Router
}

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config    *coreconfig.Config
	Publisher Publisher
	Router    *Router

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Run connects to the Discord gateway and serves events until ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("discord: nil config provided")
	}
	router := opts.Router
	if router == nil {
		router = NewRouter(opts.Config.Discord.Prefix, opts.Config.Discord.AdminID)
	}

	s, err := discordgo.New("Bot " + opts.Config.Discord.Token)
	if err != nil {
		return fmt.Errorf("discord: session init failed: %w", err)
	}
	s.Identify.Intents = Intents

	rt := Runtime{Session: s, Messenger: NewMessenger(s), Router: router}
	g := &gateway{ctx: ctx, pub: opts.Publisher, rt: rt}

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		if r.User != nil {
			g.self.Store(r.User.ID)
		}
		logger.LogEvent(ctx, logger.DC, slog.LevelInfo, "ready",
			slog.String("status", "ok"),
			slog.Int("guilds", len(r.Guilds)),
		)
	})
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r != nil && r.MessageReaction != nil {
			g.reaction(events.ReactionAdded, r.MessageReaction)
		}
	})
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if r != nil && r.MessageReaction != nil {
			g.reaction(events.ReactionRemoved, r.MessageReaction)
		}
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m != nil && m.Message != nil {
			g.message(m.Message)
		}
	})

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := s.Open(); err != nil {
		logger.LogEvent(ctx, logger.DC, slog.LevelError, "gateway.open",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("discord: gateway open failed: %w", err)
	}
	logger.LogEvent(ctx, logger.DC, slog.LevelInfo, "gateway.open",
		slog.String("status", "ok"),
		slog.String("prefix", router.Prefix()),
		slog.Duration("duration", logger.Took(start)),
	)

	<-ctx.Done()

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	closeErr := s.Close()
	return errors.Join(stopErr, closeErr)
}

// gateway turns gateway payloads into hub events and commands.
type gateway struct {
	ctx  context.Context
	pub  Publisher
	rt   Runtime
	self atomic.Value
}

func (g *gateway) selfID() string {
	id, _ := g.self.Load().(string)
	return id
}

func (g *gateway) reaction(kind events.Kind, r *discordgo.MessageReaction) {
	if r.UserID == "" || r.UserID == g.selfID() || g.pub == nil {
		return
	}
	g.pub.Publish(ReactionEvent(kind, r))
}

func (g *gateway) message(m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == g.selfID() {
		return
	}
	ctx := g.eventContext(m)
	if g.pub != nil {
		if n := g.pub.Publish(MessageEvent(m)); n > 0 {
			logger.LogEvent(ctx, logger.DC, slog.LevelDebug, "message.consumed", slog.Int("waiters", n))
			return
		}
	}
	if g.rt.Router == nil {
		return
	}
	name, args, ok := g.rt.Router.Parse(m.Content)
	if !ok {
		return
	}
	req := Request{
		Name:      name,
		Args:      args,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		MessageID: m.ID,
	}
	_, err := g.rt.Router.Dispatch(ctx, g.rt, req)
	if errors.Is(err, ErrAdminOnly) && g.rt.Messenger != nil {
		_, _ = g.rt.Messenger.SendText(ctx, m.ChannelID, AdminRejectText)
	}
}

// eventContext derives a request context from the root context so sessions
// started by a command end with the process, not with the handler.
func (g *gateway) eventContext(m *discordgo.Message) context.Context {
	meta := logger.Meta{Platform: Platform, EventID: m.ID, ChannelID: m.ChannelID}
	if m.Author != nil {
		meta.UserID = m.Author.ID
	}
	ctx := logger.WithRID(g.ctx, logger.BuildRID(meta))
	ctx = logger.WithMeta(ctx, meta)
	return logger.WithLogger(ctx, logger.Component(Platform))
}

// ReactionEvent converts a reaction payload into a hub event.
func ReactionEvent(kind events.Kind, r *discordgo.MessageReaction) events.Event {
	return events.Event{
		Kind:      kind,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Symbol:    r.Emoji.APIName(),
	}
}

// MessageEvent converts a created message into a hub event.
func MessageEvent(m *discordgo.Message) events.Event {
	ev := events.Event{
		Kind:      events.MessageCreated,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	if m.Author != nil {
		ev.UserID = m.Author.ID
	}
	return ev
}
