package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteWebhook(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path == "/botbad/deleteWebhook" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	prev := apiBase
	apiBase = srv.URL
	t.Cleanup(func() { apiBase = prev })

	require.NoError(t, deleteWebhook(context.Background(), "123:abc", true))
	assert.Equal(t, "/bot123:abc/deleteWebhook", gotPath)
	assert.Equal(t, "drop_pending_updates=true", gotBody)

	require.ErrorContains(t, deleteWebhook(context.Background(), "bad", false), "401")
	require.Error(t, deleteWebhook(context.Background(), " ", false))
}

func TestRunTelegramRequiresConfig(t *testing.T) {
	require.Error(t, RunTelegram(context.Background(), RunOptions{}))
}
