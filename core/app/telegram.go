package app

import (
	"context"
	"log/slog"

	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
	coretelegram "github.com/m3rciful/pagerbot/core/telegram"
	"github.com/m3rciful/pagerbot/core/telegram/callbacks"
	"github.com/m3rciful/pagerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/pagerbot/core/telegram/helpers"
	"github.com/m3rciful/pagerbot/core/telegram/pager"
	"github.com/m3rciful/pagerbot/core/telegram/router"
	"github.com/m3rciful/pagerbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

var runTelegram = coretelegram.RunTelegram

var tgCommands = commandNames{list: "/docs", read: "/read"}

const (
	welcomeText     = "Hi! I page through documents for you. Use the buttons under a document to move around."
	adminRejectText = "Only the bot admin can do that."
	slowDownText    = "Slow down a little."
)

// tgHandlers serves Telegram commands. root and messenger are set in OnStart,
// before the bot consumes updates.
type tgHandlers struct {
	app       *App
	reg       *coretelegram.Registry
	root      context.Context
	messenger paginator.Messenger
}

// TelegramRunOptions wires commands, control callbacks and text routing.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	h := &tgHandlers{app: a, reg: reg, root: context.Background()}
	replies := ui.DefaultReplies()

	reg.RegisterCommand("/start", commands.Command{Handler: h.start, Description: "Introduction", Hidden: true})
	reg.RegisterCommand("/help", commands.Command{Handler: h.help, Description: "List commands"})
	reg.RegisterCommand("/docs", commands.Command{Handler: h.list, Description: "List documents"})
	reg.RegisterCommand("/read", commands.Command{Handler: h.read, Description: "Open a document", Usage: "<name>"})
	reg.RegisterCommand("/sessions", commands.Command{Handler: h.sessions, Description: "Live sessions", AdminOnly: true})
	if err := reg.RegisterCallback(callbacks.PagerUnique, pager.ControlHandler(a.hub, a.sessions)); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetCallbackNotFound(replies.UnknownCallback())

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, adminRejectText)
		},
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{NotFound: replies.UnknownCallback()}))
	routes = append(routes, router.TextRoutes(a.hub, reg, router.TextOptions{
		UnknownText:     replies.UnknownText(),
		UnknownDocument: replies.UnknownDocument(),
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			h.root = ctx
			h.messenger = pager.New(rt.Bot, rt.Dispatcher)
			logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "pager.ready",
				slog.Int("commands", len(reg.Commands())),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			a.shutdown(ctx)
			return nil
		},
	}, nil
}

// onLimited stops the spinner on throttled button presses. Throttled
// messages are dropped silently.
func onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return tghelpers.Notify(c, slowDownText)
	}
	return nil
}

func (h *tgHandlers) start(c tele.Context) error {
	return tghelpers.SendLines(c, append([]string{welcomeText, ""}, h.reg.HelpLines(false)...)...)
}

func (h *tgHandlers) help(c tele.Context) error {
	admin := h.app.cfg.Telegram.AdminID != 0 && c.Sender() != nil && c.Sender().ID == h.app.cfg.Telegram.AdminID
	return tghelpers.SendLines(c, h.reg.HelpLines(admin)...)
}

func (h *tgHandlers) list(c tele.Context) error {
	text, err := h.app.listText(tghelpers.BuildContext(c), tgCommands)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, text)
}

func (h *tgHandlers) read(c tele.Context) error {
	var name string
	if m := c.Message(); m != nil {
		name = m.Payload
	}
	inv := paginator.Invocation{
		Owner:     tghelpers.SenderID(c),
		Channel:   tghelpers.ChatID(c),
		Messenger: h.messenger,
		Events:    h.app.hub,
	}
	reply, err := h.app.openDocument(h.sessionContext(c), inv, name, tgCommands)
	if err != nil {
		return err
	}
	if reply != "" {
		return tghelpers.SendText(c, reply)
	}
	return nil
}

func (h *tgHandlers) sessions(c tele.Context) error {
	text, err := h.app.sessionsText(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, text)
}

// sessionContext carries the request ids of c on the root context, so a
// session outlives the handler but still logs under the request that started it.
func (h *tgHandlers) sessionContext(c tele.Context) context.Context {
	req := tghelpers.BuildContext(c)
	ctx := logger.WithRID(h.root, logger.RIDFrom(req))
	return logger.WithMeta(ctx, logger.MetaFrom(req))
}
