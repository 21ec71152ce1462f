package events_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/extremecarpaccio/carpaccio/events"
	"github.com/extremecarpaccio/carpaccio/logging"
)

func TestHubStreamsEvents(t *testing.T) {
	hub := events.NewHub(logging.NewContext(context.Background(), zaptest.NewLogger(t)))
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	sent := event(3, events.PlayerOnline, "bob")
	hub.Record(sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var received events.Event
	require.NoError(t, json.Unmarshal(data, &received))
	require.Equal(t, sent.ID, received.ID)
	require.Equal(t, sent.Type, received.Type)
	require.Equal(t, "bob", received.Username)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubWithoutSubscribers(t *testing.T) {
	hub := events.NewHub(context.Background())
	hub.Record(event(1, events.IterationStarting, ""))
	require.Zero(t, hub.Subscribers())
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := events.NewHub(logging.NewContext(context.Background(), zaptest.NewLogger(t)))
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	require.Zero(t, hub.Subscribers())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
}
