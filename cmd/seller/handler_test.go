package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/extremecarpaccio/carpaccio/dispatch"
	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/question"
)

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAnswersOrders(t *testing.T) {
	srv := httptest.NewServer(newHandler(zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)

	resp := post(t, srv, "/order", `{"prices":[10,20],"quantities":[1,2],"country":"FR","reduction":"STANDARD"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a answer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	require.NotNil(t, a.Total)
	require.InDelta(t, 60, *a.Total, 0.001)

	resp = post(t, srv, "/order", `{"question":"carpaccio"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a = answer{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&a))
	require.Equal(t, "carpaccio", a.Response)

	resp = post(t, srv, "/order", `{"prices":[10],"quantities":[1],"country":"XX","reduction":"STANDARD"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/order", `{`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAcceptsFeedback(t *testing.T) {
	srv := httptest.NewServer(newHandler(zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)

	require.Equal(t, http.StatusOK, post(t, srv, "/feedback", `{"type":"WIN","content":"won 450.00"}`).StatusCode)
	require.Equal(t, http.StatusBadRequest, post(t, srv, "/feedback", `nope`).StatusCode)
}

// The sample seller wins every question of the generator.
func TestWinsGeneratedQuestions(t *testing.T) {
	srv := httptest.NewServer(newHandler(zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)

	gen := question.Generator{WarmupTicks: 3, InvalidRatio: 0.3}
	rnd := question.NewRandomizer(42)
	dispatcher := dispatch.New()
	p := game.Player{Username: "bob", URL: srv.URL}
	for tick := uint(1); tick <= 50; tick++ {
		q := gen.NextQuestion(tick, rnd)
		o, err := dispatcher.Dispatch(context.Background(), tick, q, p)
		require.NoError(t, err)
		o.Rates = game.Rates{GainAmount: q.GainAmount(), GainPenalty: q.GainPenalty()}
		require.Equal(t, game.Won, game.Evaluate(o).Verdict, "tick %d: %+v", tick, q)
	}
}
