package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type sendRecorder struct {
	tele.Context
	text string
	sent []string
}

func (r *sendRecorder) Text() string { return r.text }

func (r *sendRecorder) Send(what interface{}, _ ...interface{}) error {
	r.sent = append(r.sent, what.(string))
	return nil
}

func TestUnknownTextOnlyAnswersCommands(t *testing.T) {
	replies := DefaultReplies()

	chatter := &sendRecorder{text: "hello there"}
	require.NoError(t, replies.UnknownText()(chatter))
	assert.Empty(t, chatter.sent)

	cmd := &sendRecorder{text: " /nope"}
	require.NoError(t, replies.UnknownText()(cmd))
	assert.Equal(t, []string{replies.UnknownCommand}, cmd.sent)
}

func TestEmptyRepliesStaySilent(t *testing.T) {
	rec := &sendRecorder{text: "/nope"}
	require.NoError(t, Replies{}.UnknownText()(rec))
	require.NoError(t, Replies{}.UnknownDocument()(rec))
	assert.Empty(t, rec.sent)

	require.NoError(t, DefaultReplies().UnknownDocument()(rec))
	assert.Len(t, rec.sent, 1)
}
