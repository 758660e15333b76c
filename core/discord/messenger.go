// Package discord connects pagination sessions to a Discord bot account.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

// bulkDeleteMax is the most messages one bulk delete call accepts.
const bulkDeleteMax = 100

// API is the subset of *discordgo.Session the messenger calls.
type API interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
}

var (
	_ API                 = (*discordgo.Session)(nil)
	_ paginator.Messenger = (*Messenger)(nil)
)

// Messenger implements paginator.Messenger with Discord embeds and reactions.
type Messenger struct {
	api API
}

// NewMessenger wraps api.
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// Send posts page to channelID.
func (m *Messenger) Send(ctx context.Context, channelID string, page paginator.Page) (paginator.MessageRef, error) {
	data := &discordgo.MessageSend{}
	if e := ToEmbed(page.Embed); e != nil {
		data.Embeds = []*discordgo.MessageEmbed{e}
	}
	if f := toFile(page.File); f != nil {
		data.Files = []*discordgo.File{f}
	}
	msg, err := m.api.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return paginator.MessageRef{}, fmt.Errorf("discord: send: %w", err)
	}
	return ref(msg), nil
}

// Edit swaps the embed of msg. A page file replaces every existing attachment.
func (m *Messenger) Edit(ctx context.Context, msg paginator.MessageRef, page paginator.Page) error {
	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.MessageID)
	embeds := []*discordgo.MessageEmbed{}
	if e := ToEmbed(page.Embed); e != nil {
		embeds = append(embeds, e)
	}
	edit.Embeds = &embeds
	if f := toFile(page.File); f != nil {
		edit.Files = []*discordgo.File{f}
		edit.Attachments = &[]*discordgo.MessageAttachment{}
	}
	if _, err := m.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: edit %s: %w", msg.MessageID, err)
	}
	return nil
}

// Delete removes msg.
func (m *Messenger) Delete(ctx context.Context, msg paginator.MessageRef) error {
	if err := m.api.ChannelMessageDelete(msg.ChannelID, msg.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: delete %s: %w", msg.MessageID, err)
	}
	return nil
}

// AddReaction reacts to msg with a unicode emoji.
func (m *Messenger) AddReaction(ctx context.Context, msg paginator.MessageRef, symbol string) error {
	if err := m.api.MessageReactionAdd(msg.ChannelID, msg.MessageID, symbol, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: react %s: %w", symbol, err)
	}
	return nil
}

// ClearReactions removes every reaction from msg.
func (m *Messenger) ClearReactions(ctx context.Context, msg paginator.MessageRef) error {
	if err := m.api.MessageReactionsRemoveAll(msg.ChannelID, msg.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: clear reactions: %w", err)
	}
	return nil
}

// SendText posts a plain message.
func (m *Messenger) SendText(ctx context.Context, channelID, text string) (paginator.MessageRef, error) {
	msg, err := m.api.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return paginator.MessageRef{}, fmt.Errorf("discord: send text: %w", err)
	}
	return ref(msg), nil
}

// DeleteMessages removes msgs from channelID. Bulk delete is refused in DMs
// and for old messages, so a failed bulk call falls back to single deletes.
func (m *Messenger) DeleteMessages(ctx context.Context, channelID string, msgs []paginator.MessageRef) error {
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.IsZero() {
			ids = append(ids, msg.MessageID)
		}
	}
	switch {
	case len(ids) == 0:
		return nil
	case len(ids) == 1:
		return m.Delete(ctx, paginator.MessageRef{ChannelID: channelID, MessageID: ids[0]})
	}

	var errs []error
	for start := 0; start < len(ids); start += bulkDeleteMax {
		chunk := ids[start:min(start+bulkDeleteMax, len(ids))]
		if len(chunk) > 1 {
			err := m.api.ChannelMessagesBulkDelete(channelID, chunk, discordgo.WithContext(ctx))
			if err == nil {
				continue
			}
			logger.LogEvent(ctx, logger.DC, slog.LevelDebug, "bulk_delete",
				slog.String("status", "retry"),
				slog.Int("count", len(chunk)),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
		for _, id := range chunk {
			if err := m.api.ChannelMessageDelete(channelID, id, discordgo.WithContext(ctx)); err != nil {
				errs = append(errs, fmt.Errorf("discord: delete %s: %w", id, err))
			}
		}
	}
	return errors.Join(errs...)
}

func toFile(f *paginator.File) *discordgo.File {
	if f == nil {
		return nil
	}
	return &discordgo.File{
		Name:        f.Name,
		ContentType: f.ContentType,
		Reader:      bytes.NewReader(f.Data),
	}
}

func ref(msg *discordgo.Message) paginator.MessageRef {
	if msg == nil {
		return paginator.MessageRef{}
	}
	return paginator.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}
}
