package players_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
	"github.com/extremecarpaccio/carpaccio/players"
)

func newRegistry(t *testing.T, dir string) *players.Registry {
	t.Helper()
	ctx := logging.NewContext(context.Background(), zaptest.NewLogger(t))
	r, err := players.New(ctx, dir)
	require.NoError(t, err)
	return r
}

func TestRegister(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	ctx := context.Background()

	created, err := r.Register(ctx, players.Registration{Username: "alice", Password: "secret", URL: "http://localhost:3000"})
	require.NoError(t, err)
	require.True(t, created)

	p, err := r.Get("alice")
	require.NoError(t, err)
	require.Equal(t, game.Player{Username: "alice", URL: "http://localhost:3000"}, p)

	t.Run("same password updates the url", func(t *testing.T) {
		created, err := r.Register(ctx, players.Registration{Username: "alice", Password: "secret", URL: "http://localhost:4000"})
		require.NoError(t, err)
		require.False(t, created)
		p, err := r.Get("alice")
		require.NoError(t, err)
		require.Equal(t, "http://localhost:4000", p.URL)
	})
	t.Run("wrong password", func(t *testing.T) {
		_, err := r.Register(ctx, players.Registration{Username: "alice", Password: "guess", URL: "http://evil:1"})
		require.ErrorIs(t, err, players.ErrInvalidCredentials)
		p, err := r.Get("alice")
		require.NoError(t, err)
		require.Equal(t, "http://localhost:4000", p.URL)
	})
}

func TestRegisterValidation(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	tests := []players.Registration{
		{Password: "p", URL: "http://localhost"},
		{Username: "bad name", Password: "p", URL: "http://localhost"},
		{Username: "bob", URL: "http://localhost"},
		{Username: "bob", Password: "p"},
		{Username: "bob", Password: "p", URL: "localhost:3000"},
		{Username: "bob", Password: "p", URL: "ftp://localhost"},
		{Username: "bob", Password: "p", URL: "http://"},
		{},
	}
	for _, reg := range tests {
		_, err := r.Register(context.Background(), reg)
		require.ErrorIs(t, err, players.ErrInvalidRegistration, "%+v", reg)
	}
	require.Empty(t, r.All())
}

func TestAllIsSorted(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	for _, name := range []string{"dave", "alice", "carol", "bob"} {
		_, err := r.Register(context.Background(), players.Registration{Username: name, Password: "p", URL: "http://" + name})
		require.NoError(t, err)
	}
	var names []string
	for _, p := range r.All() {
		names = append(names, p.Username)
	}
	require.Equal(t, []string{"alice", "bob", "carol", "dave"}, names)
}

func TestUnknownPlayer(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	require.ErrorIs(t, r.AddCash("nobody", 1), players.ErrUnknownPlayer)
	require.ErrorIs(t, r.MarkOnline("nobody", true), players.ErrUnknownPlayer)
	_, err := r.Get("nobody")
	require.ErrorIs(t, err, players.ErrUnknownPlayer)
	_, err = r.History("nobody")
	require.ErrorIs(t, err, players.ErrUnknownPlayer)
}

func TestConcurrentMutations(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	const sellers = 20
	for i := 0; i < sellers; i++ {
		name := fmt.Sprintf("seller%d", i)
		_, err := r.Register(context.Background(), players.Registration{Username: name, Password: "p", URL: "http://" + name})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < sellers; i++ {
		name := fmt.Sprintf("seller%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				require.NoError(t, r.AddCash(name, 10))
				require.NoError(t, r.MarkOnline(name, j%2 == 0))
			}
		}()
	}
	wg.Wait()

	for _, p := range r.All() {
		require.Equal(t, 100.0, p.Cash)
		require.False(t, p.Online)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	r := newRegistry(t, dir)

	_, err := r.Register(ctx, players.Registration{Username: "alice", Password: "secret", URL: "http://alice"})
	require.NoError(t, err)
	require.NoError(t, r.AddCash("alice", 450))
	require.NoError(t, r.MarkOnline("alice", true))
	require.NoError(t, r.SaveState(ctx, 1))
	require.NoError(t, r.AddCash("alice", -250))
	require.NoError(t, r.SaveState(ctx, 2))
	// Not checkpointed.
	require.NoError(t, r.AddCash("alice", 1000))
	require.NoError(t, r.Close())

	r = newRegistry(t, dir)
	t.Cleanup(func() { require.NoError(t, r.Close()) })

	require.Equal(t, uint(2), r.LastCheckpoint())
	p, err := r.Get("alice")
	require.NoError(t, err)
	require.Equal(t, game.Player{Username: "alice", URL: "http://alice", Cash: 200, Online: true}, p)

	history, err := r.History("alice")
	require.NoError(t, err)
	require.Equal(t, []players.Point{{Tick: 1, Cash: 450}, {Tick: 2, Cash: 200}}, history)

	// The password survives too.
	_, err = r.Register(ctx, players.Registration{Username: "alice", Password: "wrong", URL: "http://alice"})
	require.ErrorIs(t, err, players.ErrInvalidCredentials)
}

func TestCashHistories(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	ctx := context.Background()

	_, err := r.Register(ctx, players.Registration{Username: "alice", Password: "p", URL: "http://alice"})
	require.NoError(t, err)
	for tick := uint(1); tick <= 5; tick++ {
		require.NoError(t, r.AddCash("alice", 10))
		require.NoError(t, r.SaveState(ctx, tick))
	}
	require.Equal(t, map[string][]float64{"alice": {10, 30, 50}}, r.CashHistories(2))
	require.Equal(t, map[string][]float64{"alice": {10, 20, 30, 40, 50}}, r.CashHistories(0))

	// A new checkpoint is not hidden by the cache.
	require.NoError(t, r.AddCash("alice", 10))
	require.NoError(t, r.SaveState(ctx, 6))
	require.Equal(t, map[string][]float64{"alice": {10, 30, 50, 60}}, r.CashHistories(2))
}

func TestCashHistoriesIncludeNewPlayers(t *testing.T) {
	r := newRegistry(t, t.TempDir())
	t.Cleanup(func() { require.NoError(t, r.Close()) })
	ctx := context.Background()

	_, err := r.Register(ctx, players.Registration{Username: "alice", Password: "p", URL: "http://alice"})
	require.NoError(t, err)
	require.NoError(t, r.AddCash("alice", 10))
	require.NoError(t, r.SaveState(ctx, 1))
	require.Equal(t, map[string][]float64{"alice": {10}}, r.CashHistories(10))

	// No checkpoint in between: bob registers during the tick.
	_, err = r.Register(ctx, players.Registration{Username: "bob", Password: "p", URL: "http://bob"})
	require.NoError(t, err)
	histories := r.CashHistories(10)
	require.Contains(t, histories, "bob")
	require.Empty(t, histories["bob"])
	require.Equal(t, []float64{10}, histories["alice"])
}
