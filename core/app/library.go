package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/pagerbot/core/docs"
	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

// commandNames are the platform spellings of the document commands.
type commandNames struct {
	list string
	read string
}

// sessionOptions turns the pager config into session options.
func (a *App) sessionOptions() []paginator.Option {
	p := a.cfg.Pager
	opts := []paginator.Option{
		paginator.WithCompact(p.Compact),
		paginator.WithInput(!p.DisableInput),
		paginator.WithPrompts(paginator.Prompts{Ask: p.AskPrompt, TooSlow: p.TooSlowPrompt}),
	}
	if d := p.IdleTimeout(); d > 0 {
		opts = append(opts, paginator.WithIdleTimeout(d))
	}
	if d := p.InputTimeout(); d > 0 {
		opts = append(opts, paginator.WithInputTimeout(d))
	}
	if d := p.NoticeDelay(); d > 0 {
		opts = append(opts, paginator.WithNoticeDelay(d))
	}
	if a.journal != nil {
		opts = append(opts, paginator.WithJournal(a.journal))
	}
	return opts
}

// openDocument starts a session over the named document. It returns a reply
// for the user when no session could be started for a user-facing reason.
// ctx must outlive the request: cancelling it ends the session.
func (a *App) openDocument(ctx context.Context, inv paginator.Invocation, name string, cmds commandNames) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Usage: %s <name>. Send %s to see the library.", cmds.read, cmds.list), nil
	}

	doc, err := a.library.Lookup(ctx, name)
	var nf *docs.NotFoundError
	switch {
	case errors.As(err, &nf):
		reply := fmt.Sprintf("I have no document called %q.", nf.Name)
		if len(nf.Suggestions) > 0 {
			return reply + " Did you mean: " + strings.Join(nf.Suggestions, ", ") + "?", nil
		}
		return reply + fmt.Sprintf(" Send %s to see the library.", cmds.list), nil
	case err != nil:
		return "", err
	}

	s := doc.Session(a.sessionOptions()...)
	if err := a.sessions.Start(ctx, s, inv); err != nil {
		return "", fmt.Errorf("start %q: %w", doc.Name, err)
	}
	logger.LogEvent(ctx, logger.L, slog.LevelDebug, "document.opened",
		slog.String("document", doc.Name),
		slog.Int("pages", len(doc.Pages)),
		slog.Int("live", a.sessions.Len()),
	)
	return "", nil
}

// listText renders the library contents.
func (a *App) listText(ctx context.Context, cmds commandNames) (string, error) {
	names, err := a.library.Names(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "The library is empty.", nil
	}
	var b strings.Builder
	b.WriteString("Available documents:\n")
	for _, n := range names {
		b.WriteString("• ")
		b.WriteString(n)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nOpen one with %s <name>.", cmds.read)
	return b.String(), nil
}

// sessionsText reports live sessions and, with a journal, past ones.
func (a *App) sessionsText(ctx context.Context) (string, error) {
	text := fmt.Sprintf("Live sessions: %d", a.sessions.Len())
	if a.stats == nil {
		return text, nil
	}
	stats, err := a.stats.SessionStats(ctx)
	if err != nil {
		return "", err
	}
	reasons := make([]string, 0, len(stats))
	for r := range stats {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		text += fmt.Sprintf("\n%s: %d", r, stats[r])
	}
	return text, nil
}
