// Package web serves the HTTP API of the game: seller registration, balances,
// cash histories and game events.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/events"
	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
	"github.com/extremecarpaccio/carpaccio/players"
)

const (
	DefaultHistoryChunk = 10
	DefaultEventsLimit  = 100
	MaxEventsLimit      = 1000
)

type Registry interface {
	All() []game.Player
	Register(ctx context.Context, reg players.Registration) (bool, error)
	CashHistories(chunk int) map[string][]float64
}

type EventLog interface {
	Since(fromTick uint, limit int) ([]events.Event, error)
}

type RegistrationListener interface {
	InvalidRegistration(tick uint, username, url string)
}

// Clock tells the tick the game is at.
type Clock interface {
	Current() uint
}

type API struct {
	registry Registry
	events   EventLog
	listener RegistrationListener
	clock    Clock
	live     http.Handler
	logger   *zap.Logger
}

// New creates the API. live serves the event stream.
func New(
	ctx context.Context,
	registry Registry,
	eventLog EventLog,
	listener RegistrationListener,
	clock Clock,
	live http.Handler,
) *API {
	return &API{
		registry: registry,
		events:   eventLog,
		listener: listener,
		clock:    clock,
		live:     live,
		logger:   logging.FromContext(ctx).Named("web"),
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /sellers", a.sellers)
	mux.HandleFunc("GET /sellers/history", a.history)
	mux.HandleFunc("GET /sellers/events", a.eventsSince)
	mux.Handle("GET /sellers/events/live", a.live)
	mux.HandleFunc("POST /seller", a.register)
	return withLogging(a.logger, mux)
}

type sellerResponse struct {
	Username string  `json:"username"`
	Cash     float64 `json:"cash"`
	Online   bool    `json:"online"`
}

func (a *API) sellers(w http.ResponseWriter, r *http.Request) {
	all := a.registry.All()
	sellers := make([]sellerResponse, 0, len(all))
	for _, p := range all {
		sellers = append(sellers, sellerResponse{Username: p.Username, Cash: p.Cash, Online: p.Online})
	}
	writeJSON(r.Context(), w, http.StatusOK, sellers)
}

type historyResponse struct {
	LastIteration uint                 `json:"lastIteration"`
	History       map[string][]float64 `json:"history"`
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	chunk, err := intParam(r, "chunk", DefaultHistoryChunk)
	if err != nil || chunk < 1 {
		http.Error(w, "chunk must be a positive integer", http.StatusBadRequest)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, historyResponse{
		LastIteration: a.clock.Current(),
		History:       a.registry.CashHistories(chunk),
	})
}

type eventsResponse struct {
	Count    int            `json:"count"`
	FromTick uint           `json:"fromTick"`
	Events   []events.Event `json:"events"`
}

func (a *API) eventsSince(w http.ResponseWriter, r *http.Request) {
	fromTick, err := intParam(r, "fromTick", 0)
	if err != nil || fromTick < 0 {
		http.Error(w, "fromTick must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit, err := intParam(r, "limit", DefaultEventsLimit)
	if err != nil || limit < 1 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	if limit > MaxEventsLimit {
		limit = MaxEventsLimit
	}

	evs, err := a.events.Since(uint(fromTick), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to read events", zap.Error(err))
		http.Error(w, "failed to read events", http.StatusInternalServerError)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, eventsResponse{Count: len(evs), FromTick: uint(fromTick), Events: evs})
}

type registrationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed registration", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed registration", http.StatusBadRequest)
			return
		}
		req = registrationRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
			URL:      r.PostForm.Get("url"),
		}
	}

	_, err := a.registry.Register(r.Context(), players.Registration{
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
	})
	switch {
	case errors.Is(err, players.ErrInvalidRegistration):
		a.listener.InvalidRegistration(a.clock.Current(), req.Username, req.URL)
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, players.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusForbidden)
	case err != nil:
		logging.FromContext(r.Context()).Error("failed to register seller", zap.String("username", req.Username), zap.Error(err))
		http.Error(w, "registration failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(ctx).Debug("failed to encode response", zap.Error(err))
	}
}
