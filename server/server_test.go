package server_test

// End to end tests running a game server against sellers served by httptest.

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/extremecarpaccio/carpaccio/logging"
	"github.com/extremecarpaccio/carpaccio/server"
)

const randomHost = "localhost:0"

// echoSeller answers every text question right.
func echoSeller(t *testing.T) (url string, feedbacks *atomic.Int32) {
	t.Helper()
	feedbacks = &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /order", func(w http.ResponseWriter, r *http.Request) {
		var q struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": q.Question})
	})
	mux.HandleFunc("POST /feedback", func(w http.ResponseWriter, r *http.Request) {
		feedbacks.Add(1)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL, feedbacks
}

func testConfig(t *testing.T) server.Config {
	t.Helper()
	seed := int64(1234)
	cfg := server.DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.RawRESTListener = randomHost
	cfg.Game.Interval = 20 * time.Millisecond
	cfg.Game.WarmupTicks = 1 << 20
	cfg.Game.DispatchTimeout = time.Second
	cfg.Game.Seed = &seed
	cfg.Events.FlushInterval = 10 * time.Millisecond

	_, err := server.SetupConfig(cfg)
	require.NoError(t, err)
	return *cfg
}

type seller struct {
	Username string  `json:"username"`
	Cash     float64 `json:"cash"`
	Online   bool    `json:"online"`
}

func sellers(addr string) ([]seller, error) {
	resp, err := http.Get("http://" + addr + "/sellers")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var all []seller
	return all, json.NewDecoder(resp.Body).Decode(&all)
}

func runServer(t *testing.T, cfg server.Config, until func(srv *server.Server)) {
	t.Helper()
	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), zaptest.NewLogger(t)))
	defer cancel()

	srv, err := server.New(ctx, cfg)
	require.NoError(t, err)

	var eg errgroup.Group
	eg.Go(func() error { return srv.Start(ctx) })

	until(srv)

	cancel()
	assert.NoError(t, eg.Wait())
	require.NoError(t, srv.Close())
}

func TestServerPlaysTicks(t *testing.T) {
	cfg := testConfig(t)
	sellerURL, feedbacks := echoSeller(t)

	runServer(t, cfg, func(srv *server.Server) {
		addr := srv.RESTAddr().String()
		resp, err := http.Post(
			"http://"+addr+"/seller",
			"application/json",
			strings.NewReader(`{"username":"bob","password":"secret","url":"`+sellerURL+`"}`),
		)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		require.Eventually(t, func() bool {
			all, err := sellers(addr)
			return err == nil && len(all) == 1 && all[0].Online && all[0].Cash >= 3*450
		}, 5*time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool { return feedbacks.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
		// Wait for the cash to be checkpointed.
		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + addr + "/sellers/history?chunk=1")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			var history struct {
				History map[string][]float64 `json:"history"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
				return false
			}
			cash := history.History["bob"]
			return len(cash) > 0 && cash[len(cash)-1] >= 3*450
		}, 5*time.Second, 10*time.Millisecond)
	})

	// The game resumes after the last checkpoint.
	runServer(t, cfg, func(srv *server.Server) {
		addr := srv.RESTAddr().String()
		all, err := sellers(addr)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.GreaterOrEqual(t, all[0].Cash, 3*450.0)

		resp, err := http.Get("http://" + addr + "/sellers/history?chunk=1")
		require.NoError(t, err)
		defer resp.Body.Close()
		var history struct {
			LastIteration uint                 `json:"lastIteration"`
			History       map[string][]float64 `json:"history"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
		require.GreaterOrEqual(t, history.LastIteration, uint(3))
		require.NotEmpty(t, history.History["bob"])

		resp, err = http.Get("http://" + addr + "/sellers/events?fromTick=1&limit=1000")
		require.NoError(t, err)
		defer resp.Body.Close()
		var page struct {
			Count  int `json:"count"`
			Events []struct {
				Type     string `json:"type"`
				Username string `json:"username"`
			} `json:"events"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		require.Positive(t, page.Count)
		won := 0
		for _, e := range page.Events {
			if e.Type == "player-won" && e.Username == "bob" {
				won++
			}
		}
		require.Positive(t, won)
	})
}

func TestServerRejectsOtherSeed(t *testing.T) {
	cfg := testConfig(t)
	runServer(t, cfg, func(*server.Server) {})

	other := *cfg.Game.Seed + 1
	cfg.Game.Seed = &other
	_, err := server.New(logging.NewContext(context.Background(), zaptest.NewLogger(t)), cfg)
	require.Error(t, err)
}

func TestServerServesMetrics(t *testing.T) {
	cfg := testConfig(t)
	port := uint16(0)
	cfg.MetricsPort = &port

	runServer(t, cfg, func(srv *server.Server) {
		require.NotNil(t, srv.MetricsAddr())
		port := srv.MetricsAddr().(*net.TCPAddr).Port
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/metrics", port))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
