package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/extremecarpaccio/carpaccio/dispatch"
	"github.com/extremecarpaccio/carpaccio/events"
	"github.com/extremecarpaccio/carpaccio/feedback"
	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
	"github.com/extremecarpaccio/carpaccio/players"
	"github.com/extremecarpaccio/carpaccio/question"
	"github.com/extremecarpaccio/carpaccio/ticker"
	"github.com/extremecarpaccio/carpaccio/web"
)

type svc interface {
	Run(ctx context.Context) error
}

type Server struct {
	registry *players.Registry
	eventLog *events.Log
	ticker   *ticker.Ticker
	api      *web.API
	hub      *events.Hub
	// sinks consume what the game produces and are stopped after it.
	sinks []svc

	restListener    net.Listener
	metricsListener net.Listener
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.FromContext(ctx)

	addr, err := net.ResolveTCPAddr("tcp", cfg.RawRESTListener)
	if err != nil {
		return nil, err
	}
	restListener, err := net.Listen(addr.Network(), addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %v", err)
	}

	var metricsListener net.Listener
	if cfg.MetricsPort != nil {
		metricsListener, err = net.Listen("tcp", fmt.Sprintf(":%d", *cfg.MetricsPort))
		if err != nil {
			restListener.Close()
			return nil, fmt.Errorf("failed to listen for metrics: %v", err)
		}
	}
	closeListeners := func() {
		restListener.Close()
		if metricsListener != nil {
			metricsListener.Close()
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		closeListeners()
		return nil, err
	}
	s, err := loadState(ctx, cfg.DataDir, cfg.Game.Seed)
	if err != nil {
		closeListeners()
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if err := saveState(cfg.DataDir, s); err != nil {
		closeListeners()
		return nil, fmt.Errorf("saving state: %w", err)
	}

	registry, err := players.New(ctx, cfg.DbDir, players.WithHistoryCacheSize(cfg.HistoryCache))
	if err != nil {
		closeListeners()
		return nil, fmt.Errorf("creating players registry: %w", err)
	}
	eventLog, err := events.OpenLog(
		cfg.DbDir,
		events.WithFlushInterval(cfg.Events.FlushInterval),
		events.WithMaxBatchSize(cfg.Events.MaxBatchSize),
		events.WithQueueSize(cfg.Events.QueueSize),
	)
	if err != nil {
		closeListeners()
		registry.Close()
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	hub := events.NewHub(ctx)
	sinks := []events.Sink{eventLog, hub}
	services := []svc{eventLog}
	if cfg.Events.Publisher.URL != "" {
		publisher := events.NewPublisher(cfg.Events.Publisher)
		sinks = append(sinks, publisher)
		services = append(services, publisher)
	} else {
		logger.Info("publishing events to a message broker is disabled")
	}
	recorder := events.NewRecorder(ctx, sinks...)

	sender := feedback.New(ctx, registry, cfg.Feedback)
	services = append(services, sender)

	// Questions depend on the seed and the tick only, whatever the restarts.
	first := registry.LastCheckpoint() + 1
	g := game.New(
		registry,
		question.Generator{WarmupTicks: cfg.Game.WarmupTicks, InvalidRatio: cfg.Game.InvalidRatio},
		dispatch.New(
			dispatch.WithTimeout(cfg.Game.DispatchTimeout),
			dispatch.WithQuestionPath(cfg.Game.QuestionPath),
		),
		sender,
		recorder,
		game.WithRandomizer(question.NewRandomizer(s.Seed+int64(first))),
		game.WithPenalties(cfg.Game.OfflinePenalty, cfg.Game.ErrorPenalty),
	)
	tk := ticker.New(g, cfg.Game.Interval, first)

	logger.Info("game server created",
		zap.Object("game", cfg.Game),
		zap.Object("events", cfg.Events),
		zap.Uint("first_tick", first),
	)
	return &Server{
		registry:        registry,
		eventLog:        eventLog,
		ticker:          tk,
		api:             web.New(ctx, registry, eventLog, recorder, tk, hub),
		hub:             hub,
		sinks:           services,
		restListener:    restListener,
		metricsListener: metricsListener,
	}, nil
}

// Close closes the stores. It must be called after Start returned.
func (s *Server) Close() error {
	var result *multierror.Error
	if err := s.eventLog.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing event log: %w", err))
	}
	if err := s.registry.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing players registry: %w", err))
	}
	return result.ErrorOrNil()
}

// RESTAddr returns the address the HTTP API is listening on.
func (s *Server) RESTAddr() net.Addr {
	return s.restListener.Addr()
}

// MetricsAddr returns the address metrics are served on, nil if disabled.
func (s *Server) MetricsAddr() net.Addr {
	if s.metricsListener == nil {
		return nil
	}
	return s.metricsListener.Addr()
}

// Start runs the game and serves the HTTP API until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	// The sinks outlive the game so that the events and feedback of the last
	// tick are not lost.
	sinksCtx, stopSinks := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSinks()
	var sinksGroup errgroup.Group
	for _, sink := range s.sinks {
		sink := sink
		sinksGroup.Go(func() error {
			return sink.Run(sinksCtx)
		})
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	serverGroup, ctx := errgroup.WithContext(ctx)

	logger.Info("starting game")
	serverGroup.Go(func() error {
		return s.ticker.Run(ctx)
	})

	servers := []*http.Server{{Handler: s.api.Handler(), ReadHeaderTimeout: time.Second * 5}}
	listeners := []net.Listener{s.restListener}
	if s.metricsListener != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{Handler: mux, ReadHeaderTimeout: time.Second * 5})
		listeners = append(listeners, s.metricsListener)
	}
	for i := range servers {
		server, listener := servers[i], listeners[i]
		serverGroup.Go(func() error {
			logger.Sugar().Infof("HTTP server listening on %s", listener.Addr())
			err := server.Serve(listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	// Wait for the server to shut down gracefully
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", zap.Error(err))
		}
	}
	// Hijacked websocket connections are not closed by Shutdown.
	s.hub.Close()
	err := serverGroup.Wait()
	if err != nil {
		logger.Error("error when waiting to shutdown servers", zap.Error(err))
	}

	stopSinks()
	if err := sinksGroup.Wait(); err != nil {
		logger.Error("error when waiting for the sinks", zap.Error(err))
	}
	logger.Info("game stopped", zap.Uint("last_tick", s.ticker.Current()))
	return err
}
