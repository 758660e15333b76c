package discord

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/paginator"
)

type fakeAPI struct {
	mu        sync.Mutex
	calls     []string
	sent      []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	texts     []string
	bulkErr   error
	nextID    int
	reactions []string
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) message(channelID string) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &discordgo.Message{ID: strings.Repeat("9", f.nextID), ChannelID: channelID}
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("send_text")
	f.mu.Lock()
	f.texts = append(f.texts, content)
	f.mu.Unlock()
	return f.message(channelID), nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("send")
	f.mu.Lock()
	f.sent = append(f.sent, data)
	f.mu.Unlock()
	return f.message(channelID), nil
}

func (f *fakeAPI) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("edit")
	f.mu.Lock()
	f.edits = append(f.edits, m)
	f.mu.Unlock()
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeAPI) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.record("delete:" + messageID)
	return nil
}

func (f *fakeAPI) ChannelMessagesBulkDelete(_ string, messages []string, _ ...discordgo.RequestOption) error {
	f.record("bulk:" + strings.Join(messages, ","))
	return f.bulkErr
}

func (f *fakeAPI) MessageReactionAdd(_, _, emojiID string, _ ...discordgo.RequestOption) error {
	f.record("react")
	f.mu.Lock()
	f.reactions = append(f.reactions, emojiID)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) MessageReactionsRemoveAll(_, _ string, _ ...discordgo.RequestOption) error {
	f.record("clear")
	return nil
}

func TestToEmbed(t *testing.T) {
	e := &paginator.Embed{
		Title:       strings.Repeat("t", 300),
		Description: "body",
		Color:       0xff0000,
		Fields:      []paginator.EmbedField{{Name: "a", Value: "b", Inline: true}},
		Image:       &paginator.EmbedMedia{URL: "attachment://image.png"},
		Author:      &paginator.EmbedAuthor{Name: "me", IconURL: "https://x/icon.png"},
		Footer:      &paginator.EmbedFooter{Text: "foot"},
	}
	got := ToEmbed(e)
	require.NotNil(t, got)
	assert.Equal(t, titleLimit, len([]rune(got.Title)))
	assert.True(t, strings.HasSuffix(got.Title, "…"))
	assert.Equal(t, "body", got.Description)
	assert.Equal(t, 0xff0000, got.Color)
	require.Len(t, got.Fields, 1)
	assert.True(t, got.Fields[0].Inline)
	assert.Equal(t, "attachment://image.png", got.Image.URL)
	assert.Nil(t, got.Thumbnail)
	assert.Equal(t, "me", got.Author.Name)
	assert.Equal(t, "foot", got.Footer.Text)

	assert.Nil(t, ToEmbed(nil))
}

func TestToEmbedCapsFields(t *testing.T) {
	e := &paginator.Embed{}
	for i := 0; i < 30; i++ {
		e.Fields = append(e.Fields, paginator.EmbedField{Name: "n", Value: "v"})
	}
	assert.Len(t, ToEmbed(e).Fields, maxFields)
}

func TestMessengerSendAndEdit(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api)
	ctx := context.Background()

	file := &paginator.File{Name: "image.png", ContentType: "image/png", Data: []byte("png")}
	ref, err := m.Send(ctx, "c1", paginator.Page{Embed: &paginator.Embed{Title: "one"}, File: file})
	require.NoError(t, err)
	assert.Equal(t, paginator.MessageRef{ChannelID: "c1", MessageID: "9"}, ref)
	require.Len(t, api.sent, 1)
	require.Len(t, api.sent[0].Files, 1)
	data, _ := io.ReadAll(api.sent[0].Files[0].Reader)
	assert.Equal(t, "png", string(data))

	require.NoError(t, m.Edit(ctx, ref, paginator.Page{Embed: &paginator.Embed{Title: "two"}}))
	require.Len(t, api.edits, 1)
	assert.Nil(t, api.edits[0].Attachments, "attachments kept without a new file")
	assert.Equal(t, "two", (*api.edits[0].Embeds)[0].Title)

	require.NoError(t, m.Edit(ctx, ref, paginator.Page{Embed: &paginator.Embed{Title: "three"}, File: file}))
	require.NotNil(t, api.edits[1].Attachments)
	assert.Empty(t, *api.edits[1].Attachments)
	assert.Len(t, api.edits[1].Files, 1)
}

func TestMessengerReactions(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api)
	ref := paginator.MessageRef{ChannelID: "c", MessageID: "m"}

	require.NoError(t, m.AddReaction(context.Background(), ref, "▶"))
	require.NoError(t, m.ClearReactions(context.Background(), ref))
	require.NoError(t, m.Delete(context.Background(), ref))
	assert.Equal(t, []string{"react", "clear", "delete:m"}, api.calls)
	assert.Equal(t, []string{"▶"}, api.reactions)
}

func TestMessengerDeleteMessages(t *testing.T) {
	refs := func(ids ...string) []paginator.MessageRef {
		out := make([]paginator.MessageRef, len(ids))
		for i, id := range ids {
			out[i] = paginator.MessageRef{ChannelID: "c", MessageID: id}
		}
		return out
	}

	t.Run("single", func(t *testing.T) {
		api := &fakeAPI{}
		require.NoError(t, NewMessenger(api).DeleteMessages(context.Background(), "c", refs("1", "")))
		assert.Equal(t, []string{"delete:1"}, api.calls)
	})
	t.Run("bulk", func(t *testing.T) {
		api := &fakeAPI{}
		require.NoError(t, NewMessenger(api).DeleteMessages(context.Background(), "c", refs("1", "2")))
		assert.Equal(t, []string{"bulk:1,2"}, api.calls)
	})
	t.Run("bulk refused falls back", func(t *testing.T) {
		api := &fakeAPI{bulkErr: errors.New("cannot bulk delete in dm")}
		require.NoError(t, NewMessenger(api).DeleteMessages(context.Background(), "c", refs("1", "2")))
		assert.Equal(t, []string{"bulk:1,2", "delete:1", "delete:2"}, api.calls)
	})
	t.Run("empty", func(t *testing.T) {
		api := &fakeAPI{}
		require.NoError(t, NewMessenger(api).DeleteMessages(context.Background(), "c", nil))
		assert.Empty(t, api.calls)
	})
}

func TestRouterParse(t *testing.T) {
	r := NewRouter("!", "")
	tests := []struct {
		in   string
		name string
		args string
		ok   bool
	}{
		{"!read guide", "read", "guide", true},
		{"  !READ   Getting Started ", "read", "Getting Started", true},
		{"!docs", "docs", "", true},
		{"!", "", "", false},
		{"! read", "", "", false},
		{"read guide", "", "", false},
	}
	for _, tt := range tests {
		name, args, ok := r.Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.args, args, tt.in)
	}
	assert.Equal(t, "!", NewRouter("", "").Prefix())
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter("?", "admin")
	var got Request
	r.Handle("read", Command{Usage: "<name>", Description: "open a document", Handler: func(_ context.Context, _ Runtime, req Request) error {
		got = req
		return nil
	}})
	r.Handle("sessions", Command{Description: "live sessions", AdminOnly: true, Handler: func(context.Context, Runtime, Request) error {
		return nil
	}})

	ok, err := r.Dispatch(context.Background(), Runtime{}, Request{Name: "read", Args: "faq", UserID: "u"})
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "faq", got.Args)
	assert.False(t, got.Admin)

	ok, err = r.Dispatch(context.Background(), Runtime{}, Request{Name: "sessions", UserID: "u"})
	assert.True(t, ok)
	require.ErrorIs(t, err, ErrAdminOnly)

	ok, err = r.Dispatch(context.Background(), Runtime{}, Request{Name: "sessions", UserID: "admin"})
	assert.True(t, ok)
	require.NoError(t, err)

	ok, _ = r.Dispatch(context.Background(), Runtime{}, Request{Name: "nope"})
	assert.False(t, ok)

	assert.Equal(t, []string{"?read <name> - open a document"}, r.HelpLines(false))
	assert.Len(t, r.HelpLines(true), 2)
}

type recordingPublisher struct {
	events   []events.Event
	consumed int
}

func (p *recordingPublisher) Publish(ev events.Event) int {
	p.events = append(p.events, ev)
	return p.consumed
}

func TestGatewayReactions(t *testing.T) {
	pub := &recordingPublisher{}
	g := &gateway{ctx: context.Background(), pub: pub}
	g.self.Store("bot")

	g.reaction(events.ReactionAdded, &discordgo.MessageReaction{UserID: "bot", MessageID: "m", Emoji: discordgo.Emoji{Name: "▶"}})
	assert.Empty(t, pub.events, "own reactions are ignored")

	g.reaction(events.ReactionRemoved, &discordgo.MessageReaction{UserID: "u", ChannelID: "c", MessageID: "m", Emoji: discordgo.Emoji{Name: "▶"}})
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.Event{Kind: events.ReactionRemoved, ChannelID: "c", MessageID: "m", UserID: "u", Symbol: "▶"}, pub.events[0])
}

func TestGatewayMessages(t *testing.T) {
	api := &fakeAPI{}
	router := NewRouter("!", "admin")
	var ran []string
	router.Handle("read", Command{Handler: func(_ context.Context, _ Runtime, req Request) error {
		ran = append(ran, req.Args)
		return nil
	}})
	router.Handle("sessions", Command{AdminOnly: true, Handler: func(context.Context, Runtime, Request) error { return nil }})

	pub := &recordingPublisher{}
	g := &gateway{ctx: context.Background(), pub: pub, rt: Runtime{Messenger: NewMessenger(api), Router: router}}

	g.message(&discordgo.Message{ID: "1", ChannelID: "c", Content: "!read faq", Author: &discordgo.User{ID: "u", Bot: true}})
	assert.Empty(t, ran, "bots are ignored")
	assert.Empty(t, pub.events)

	g.message(&discordgo.Message{ID: "2", ChannelID: "c", Content: "!read faq", Author: &discordgo.User{ID: "u"}})
	assert.Equal(t, []string{"faq"}, ran)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.MessageCreated, pub.events[0].Kind)

	pub.consumed = 1
	g.message(&discordgo.Message{ID: "3", ChannelID: "c", Content: "!read other", Author: &discordgo.User{ID: "u"}})
	assert.Equal(t, []string{"faq"}, ran, "consumed replies skip commands")

	pub.consumed = 0
	g.message(&discordgo.Message{ID: "4", ChannelID: "c", Content: "!sessions", Author: &discordgo.User{ID: "u"}})
	assert.Equal(t, []string{AdminRejectText}, api.texts)
}

func TestRunRequiresConfig(t *testing.T) {
	require.Error(t, Run(context.Background(), RunOptions{}))
}
