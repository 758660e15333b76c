package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/pagerbot/core/config"
	"github.com/m3rciful/pagerbot/core/discord"
	"github.com/m3rciful/pagerbot/core/docs"
	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/paginator"
	coretelegram "github.com/m3rciful/pagerbot/core/telegram"
)

// screen is an in-memory messenger that keeps the last shown title.
type screen struct {
	mu      sync.Mutex
	seq     int
	titles  []string
	texts   []string
	cleared int
}

func (s *screen) Send(_ context.Context, ch string, page paginator.Page) (paginator.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.titles = append(s.titles, page.Embed.Title)
	return paginator.MessageRef{ChannelID: ch, MessageID: fmt.Sprint(s.seq)}, nil
}

func (s *screen) Edit(_ context.Context, _ paginator.MessageRef, page paginator.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, page.Embed.Title)
	return nil
}

func (s *screen) Delete(context.Context, paginator.MessageRef) error { return nil }

func (s *screen) AddReaction(context.Context, paginator.MessageRef, string) error { return nil }

func (s *screen) ClearReactions(context.Context, paginator.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return nil
}

func (s *screen) SendText(_ context.Context, ch, text string) (paginator.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.texts = append(s.texts, text)
	return paginator.MessageRef{ChannelID: ch, MessageID: fmt.Sprint(s.seq)}, nil
}

func (s *screen) DeleteMessages(context.Context, string, []paginator.MessageRef) error { return nil }

func (s *screen) shown() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.titles...)
}

func document(name string, pages int) *docs.Document {
	d := &docs.Document{Name: name}
	for i := 0; i < pages; i++ {
		d.Pages = append(d.Pages, &paginator.Embed{Title: fmt.Sprintf("%s %d", name, i+1)})
	}
	return d
}

func newTestApp(cfg *coreconfig.Config, documents ...*docs.Document) *App {
	if cfg == nil {
		cfg = &coreconfig.Config{}
	}
	return New(cfg, &Services{Library: docs.NewLibrary(docs.NewMemorySource(documents...))})
}

func TestOpenDocumentReplies(t *testing.T) {
	a := newTestApp(nil, document("rules", 2), document("roles", 2), document("changelog", 1))
	inv := paginator.Invocation{Owner: "u", Channel: "c", Messenger: &screen{}, Events: a.Hub()}

	reply, err := a.openDocument(context.Background(), inv, "  ", tgCommands)
	require.NoError(t, err)
	assert.Equal(t, "Usage: /read <name>. Send /docs to see the library.", reply)

	reply, err = a.openDocument(context.Background(), inv, "rule", tgCommands)
	require.NoError(t, err)
	assert.Contains(t, reply, `I have no document called "rule".`)
	assert.Contains(t, reply, "Did you mean: ")
	assert.Contains(t, reply, "rules")

	reply, err = a.openDocument(context.Background(), inv, "zzzzzzzz", tgCommands)
	require.NoError(t, err)
	assert.Contains(t, reply, "Send /docs to see the library.")
}

func TestOpenDocumentSinglePage(t *testing.T) {
	a := newTestApp(nil, document("changelog", 1))
	scr := &screen{}
	inv := paginator.Invocation{Owner: "u", Channel: "c", Messenger: scr, Events: a.Hub()}

	reply, err := a.openDocument(context.Background(), inv, "CHANGELOG", tgCommands)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Equal(t, []string{"changelog 1"}, scr.shown())
	assert.Zero(t, a.Sessions().Len())
}

func TestOpenDocumentRunsSession(t *testing.T) {
	a := newTestApp(nil, document("guide", 3))
	scr := &screen{}
	inv := paginator.Invocation{Owner: "u", Channel: "c", Messenger: scr, Events: a.Hub()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reply, err := a.openDocument(ctx, inv, "guide", tgCommands)
	require.NoError(t, err)
	require.Empty(t, reply)
	require.Equal(t, 1, a.Sessions().Len())

	require.Eventually(t, func() bool { return a.Hub().Pending(events.ReactionAdded) > 0 }, time.Second, 5*time.Millisecond)
	a.Hub().Publish(events.Event{Kind: events.ReactionAdded, ChannelID: "c", MessageID: "1", UserID: "u", Symbol: paginator.SymbolNext})
	require.Eventually(t, func() bool { return len(scr.shown()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "guide 2", scr.shown()[1])

	cancel()
	a.shutdown(context.Background())
	require.Eventually(t, func() bool { return a.Sessions().Len() == 0 }, time.Second, 5*time.Millisecond)
}

type fixedStats map[string]int

func (f fixedStats) SessionStats(context.Context) (map[string]int, error) { return f, nil }

func TestTexts(t *testing.T) {
	a := newTestApp(nil, document("faq", 2), document("guide", 3))

	text, err := a.listText(context.Background(), tgCommands)
	require.NoError(t, err)
	assert.Equal(t, "Available documents:\n• faq\n• guide\n\nOpen one with /read <name>.", text)

	empty, err := newTestApp(nil).listText(context.Background(), tgCommands)
	require.NoError(t, err)
	assert.Equal(t, "The library is empty.", empty)

	text, err = a.sessionsText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Live sessions: 0", text)

	a.stats = fixedStats{"timed_out": 2, "open": 1}
	text, err = a.sessionsText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Live sessions: 0\nopen: 1\ntimed_out: 2", text)
}

func TestSessionOptionsFollowConfig(t *testing.T) {
	cfg := &coreconfig.Config{Pager: coreconfig.PagerConfig{Compact: true, DisableInput: true, IdleTimeoutSeconds: 5}}
	a := newTestApp(cfg)
	s := document("guide", 4).Session(a.sessionOptions()...)
	assert.True(t, s.Compact())
	assert.Len(t, s.Controls(), 3)

	full := document("guide", 4).Session(newTestApp(nil).sessionOptions()...)
	assert.Len(t, full.Controls(), 6)
}

func TestServicesProvider(t *testing.T) {
	svc, err := ServicesProvider().ProvideTyped(context.Background(), nil, docs.NewMemorySource(document("faq", 1)))
	require.NoError(t, err)
	require.NotNil(t, svc.Library)
	assert.Nil(t, svc.Journal)
	assert.Nil(t, svc.Stats)

	_, err = ServicesProvider().ProvideTyped(context.Background(), nil, struct{}{})
	require.Error(t, err)
}

func TestSeeders(t *testing.T) {
	cfg := &coreconfig.Config{Documents: coreconfig.DocumentsConfig{Dir: "documents"}}
	assert.Len(t, Seeders(cfg), 1)

	cfg.Database.Enabled = true
	assert.Empty(t, Seeders(cfg))

	cfg.Documents.SeedOnStart = true
	assert.Len(t, Seeders(cfg), 1)

	storage, err := StorageFor(cfg)(nil)
	require.NoError(t, err)
	assert.IsType(t, &docs.MemorySource{}, storage)
}

func TestTelegramRunOptions(t *testing.T) {
	a := newTestApp(&coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: 1}})
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	_, cmd, ok := opts.Registry.LookupCommand("/read guide")
	require.True(t, ok)
	assert.Equal(t, "<name>", cmd.Usage)
	_, ok = opts.Registry.GetCallback("pg")
	assert.True(t, ok)
	assert.NotEmpty(t, opts.Routes)
	assert.NotNil(t, opts.OnStart)
	assert.Contains(t, opts.Registry.HelpLines(true), "/sessions - Live sessions")
	assert.NotContains(t, opts.Registry.HelpLines(false), "/sessions - Live sessions")
}

func TestDiscordRunOptions(t *testing.T) {
	a := newTestApp(&coreconfig.Config{Discord: coreconfig.DiscordConfig{Prefix: "?", AdminID: "a"}})
	opts := a.DiscordRunOptions()
	assert.Same(t, a.Hub(), opts.Publisher)
	assert.Equal(t, []string{
		"?docs - list documents",
		"?help - list commands",
		"?read <name> - open a document",
	}, opts.Router.HelpLines(false))
	assert.Len(t, opts.Router.HelpLines(true), 4)
}

func TestRunDispatchesPlatform(t *testing.T) {
	prevTG, prevDC := runTelegram, runDiscord
	t.Cleanup(func() { runTelegram, runDiscord = prevTG, prevDC })

	var ran []string
	runDiscord = func(context.Context, discord.RunOptions) error {
		ran = append(ran, "discord")
		return nil
	}
	runTelegram = func(context.Context, coretelegram.RunOptions) error {
		ran = append(ran, "telegram")
		return nil
	}

	require.NoError(t, newTestApp(&coreconfig.Config{Platform: coreconfig.PlatformDiscord}).Run(context.Background()))
	require.NoError(t, newTestApp(&coreconfig.Config{Platform: coreconfig.PlatformTelegram}).Run(context.Background()))
	assert.Equal(t, []string{"discord", "telegram"}, ran)
}
