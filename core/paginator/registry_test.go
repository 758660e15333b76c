package paginator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pagerbot/core/events"
	"github.com/m3rciful/pagerbot/core/paginator"
)

func TestRegistry_TracksLiveSessions(t *testing.T) {
	reg := paginator.NewRegistry()
	rec := &recorder{}
	hub := events.NewHub()
	inv := paginator.Invocation{Owner: owner, Channel: channel, Messenger: rec, Events: hub}

	multi := paginator.New(pages(3))
	require.NoError(t, reg.Start(context.Background(), multi, inv))
	single := paginator.New(pages(1))
	require.NoError(t, reg.Start(context.Background(), single, inv))

	assert.Equal(t, 1, reg.Len())
	got, ok := reg.Get(multi.Message())
	require.True(t, ok)
	assert.Same(t, multi, got)
	who, ok := reg.OwnerOf(multi.Message())
	require.True(t, ok)
	assert.Equal(t, owner, who)
	_, ok = reg.OwnerOf(single.Message())
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reg.StopAll(ctx)

	assert.False(t, multi.Running())
	assert.Equal(t, 1, rec.snapshot().cleared)
	_, ok = reg.OwnerOf(multi.Message())
	assert.False(t, ok)
	require.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, time.Millisecond)
}

func TestRegistry_ForgetsFinishedSession(t *testing.T) {
	reg := paginator.NewRegistry()
	s := paginator.New(pages(3), paginator.WithIdleTimeout(20*time.Millisecond))
	inv := paginator.Invocation{Owner: owner, Channel: channel, Messenger: &recorder{}, Events: events.NewHub()}
	require.NoError(t, reg.Start(context.Background(), s, inv))

	require.Eventually(t, func() bool { return reg.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok := reg.Get(s.Message())
	assert.False(t, ok)
}
