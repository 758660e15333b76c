package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/pagerbot/core/discord"
	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

var runDiscord = discord.Run

// DiscordRunOptions wires the prefix commands.
func (a *App) DiscordRunOptions() discord.RunOptions {
	r := discord.NewRouter(a.cfg.Discord.Prefix, a.cfg.Discord.AdminID)
	names := commandNames{list: r.Prefix() + "docs", read: r.Prefix() + "read"}

	reply := func(ctx context.Context, rt discord.Runtime, req discord.Request, text string) error {
		_, err := rt.Messenger.SendText(ctx, req.ChannelID, text)
		return err
	}

	r.Handle("help", discord.Command{
		Description: "list commands",
		Handler: func(ctx context.Context, rt discord.Runtime, req discord.Request) error {
			return reply(ctx, rt, req, strings.Join(r.HelpLines(req.Admin), "\n"))
		},
	})
	r.Handle("docs", discord.Command{
		Description: "list documents",
		Handler: func(ctx context.Context, rt discord.Runtime, req discord.Request) error {
			text, err := a.listText(ctx, names)
			if err != nil {
				return err
			}
			return reply(ctx, rt, req, text)
		},
	})
	r.Handle("read", discord.Command{
		Usage:       "<name>",
		Description: "open a document",
		Handler: func(ctx context.Context, rt discord.Runtime, req discord.Request) error {
			inv := paginator.Invocation{
				Owner:     req.UserID,
				Channel:   req.ChannelID,
				Messenger: rt.Messenger,
				Events:    a.hub,
			}
			text, err := a.openDocument(ctx, inv, req.Args, names)
			if err != nil || text == "" {
				return err
			}
			return reply(ctx, rt, req, text)
		},
	})
	r.Handle("sessions", discord.Command{
		Description: "live sessions",
		AdminOnly:   true,
		Handler: func(ctx context.Context, rt discord.Runtime, req discord.Request) error {
			text, err := a.sessionsText(ctx)
			if err != nil {
				return err
			}
			return reply(ctx, rt, req, text)
		},
	})

	return discord.RunOptions{
		Config:    a.cfg,
		Publisher: a.hub,
		Router:    r,
		OnStart: func(ctx context.Context, _ discord.Runtime) error {
			logger.LogEvent(ctx, logger.DC, slog.LevelInfo, "pager.ready",
				slog.String("prefix", r.Prefix()),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ discord.Runtime) error {
			a.shutdown(ctx)
			return nil
		},
	}
}
