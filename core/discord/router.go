package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/m3rciful/pagerbot/core/logger"
)

// ErrAdminOnly is returned when a non-admin calls an admin command.
var ErrAdminOnly = errors.New("discord: command is restricted to the bot admin")

// Request is an inbound prefix command.
type Request struct {
	Name      string
	Args      string
	ChannelID string
	UserID    string
	MessageID string
	Admin     bool
}

// CommandFunc serves one command.
type CommandFunc func(ctx context.Context, rt Runtime, req Request) error

// Command is a prefix command registered on a Router.
type Command struct {
	Usage       string
	Description string
	AdminOnly   bool
	Handler     CommandFunc
}

// Router maps "<prefix><name> args" messages to commands.
type Router struct {
	prefix   string
	adminID  string
	commands map[string]Command
}

// NewRouter returns a router for prefix. An empty adminID disables admin commands.
func NewRouter(prefix, adminID string) *Router {
	if prefix == "" {
		prefix = "!"
	}
	return &Router{prefix: prefix, adminID: adminID, commands: make(map[string]Command)}
}

// Prefix returns the command prefix.
func (r *Router) Prefix() string { return r.prefix }

// Handle registers cmd under name. Names are case-insensitive.
func (r *Router) Handle(name string, cmd Command) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || cmd.Handler == nil {
		return
	}
	r.commands[name] = cmd
}

// Parse splits content into a command name and its arguments.
func (r *Router) Parse(content string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	rest, found := strings.CutPrefix(content, r.prefix)
	if !found || rest == "" {
		return "", "", false
	}
	name, args, _ = strings.Cut(rest, " ")
	name = strings.ToLower(name)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(args), true
}

// IsAdmin reports whether userID may run admin commands.
func (r *Router) IsAdmin(userID string) bool {
	return r.adminID != "" && userID == r.adminID
}

// Dispatch runs the command named in req. It reports false when req names no command.
func (r *Router) Dispatch(ctx context.Context, rt Runtime, req Request) (bool, error) {
	cmd, ok := r.commands[req.Name]
	if !ok {
		return false, nil
	}
	req.Admin = r.IsAdmin(req.UserID)

	start := time.Now()
	ctx = logger.WithHandler(ctx, req.Name)
	var err error
	if cmd.AdminOnly && !req.Admin {
		err = ErrAdminOnly
	} else {
		err = cmd.Handler(ctx, rt, req)
	}

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.DC, slog.LevelInfo, "handler.handled", attrs...)
	return true, err
}

// HelpLines lists commands visible to a regular user, or all of them for admin.
func (r *Router) HelpLines(admin bool) []string {
	names := make([]string, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.AdminOnly && !admin {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		cmd := r.commands[name]
		usage := r.prefix + name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		lines = append(lines, fmt.Sprintf("%s - %s", usage, cmd.Description))
	}
	return lines
}
