package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/extremecarpaccio/carpaccio/cmd/seller/client"
	"github.com/extremecarpaccio/carpaccio/events"
	"github.com/extremecarpaccio/carpaccio/logging"
	"github.com/extremecarpaccio/carpaccio/players"
	"github.com/extremecarpaccio/carpaccio/ticker"
	"github.com/extremecarpaccio/carpaccio/web"
)

func gameServer(t *testing.T) string {
	t.Helper()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	dir := t.TempDir()

	registry, err := players.New(ctx, dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, registry.Close()) })
	eventLog, err := events.OpenLog(dir)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, eventLog.Close()) })

	api := web.New(ctx, registry, eventLog, events.NewRecorder(ctx), ticker.New(nil, time.Second, 1), events.NewHub(ctx))
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRegister(t *testing.T) {
	c, err := client.New(gameServer(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "bob", "secret", "http://bob.local:3000"))
	require.NoError(t, c.Register(ctx, "bob", "secret", "http://bob.local:4000"))
	require.ErrorIs(t, c.Register(ctx, "bob", "guess", "http://bob.local:4000"), client.ErrForbidden)
	require.ErrorIs(t, c.Register(ctx, "alice", "secret", "ftp://alice"), client.ErrInvalidRequest)

	sellers, err := c.Sellers(ctx)
	require.NoError(t, err)
	require.Equal(t, []client.Seller{{Username: "bob"}}, sellers)
}

func TestRetriesUnavailableServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithRetryMax(3))
	require.NoError(t, err)
	require.NoError(t, c.Register(context.Background(), "bob", "secret", "http://bob.local"))
	require.Equal(t, int32(3), calls.Load())
}
