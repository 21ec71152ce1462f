package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
)

var (
	ticksMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "game",
		Name:      "ticks_total",
		Help:      "Number of ticks by result",
	}, []string{"result"})

	gainsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "game",
		Name:      "outcomes_total",
		Help:      "Number of player outcomes by result and reason",
	}, []string{"result", "reason"})

	onlineTransitionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "game",
		Name:      "online_transitions_total",
		Help:      "Number of players going online or offline",
	}, []string{"online"})

	unsupportedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "game",
		Name:      "unsupported_statuses_total",
		Help:      "Number of outcomes with a status the game does not handle",
	})

	invalidRegistrationsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "game",
		Name:      "invalid_registrations_total",
		Help:      "Number of rejected registrations",
	})
)

// Recorder implements game.Listener.
type Recorder struct {
	logger *zap.Logger
	sinks  []Sink
	now    func() time.Time
}

func NewRecorder(ctx context.Context, sinks ...Sink) *Recorder {
	return &Recorder{
		logger: logging.FromContext(ctx).Named("game"),
		sinks:  sinks,
		now:    time.Now,
	}
}

func (r *Recorder) record(e Event) {
	e.ID = uuid.New()
	e.Time = r.now()
	for _, sink := range r.sinks {
		sink.Record(e)
	}
}

func (r *Recorder) IterationStarting(tick uint) {
	r.logger.Info("iteration starting", zap.Uint("tick", tick))
	r.record(Event{Tick: tick, Type: IterationStarting})
}

func (r *Recorder) IterationCompleted(tick uint) {
	r.logger.Info("iteration completed", zap.Uint("tick", tick))
	ticksMetric.WithLabelValues("completed").Inc()
	r.record(Event{Tick: tick, Type: IterationCompleted})
}

func (r *Recorder) IterationFailed(tick uint, err error) {
	r.logger.Error("iteration failed", zap.Uint("tick", tick), zap.Error(err))
	ticksMetric.WithLabelValues("failed").Inc()
	r.record(Event{Tick: tick, Type: IterationFailed, Error: err.Error()})
}

func (r *Recorder) DispatchingQuestion(tick uint, q game.Question, p game.Player) {
	r.logger.Debug("dispatching question",
		zap.Uint("tick", tick),
		zap.String("username", p.Username),
		zap.Bool("invalid_question", q.Invalid()),
	)
	r.record(Event{Tick: tick, Type: DispatchingQuestion, Username: p.Username, URL: p.URL})
}

func (r *Recorder) PlayerWon(tick uint, username string, amount float64) {
	r.logger.Debug("player won", zap.Uint("tick", tick), zap.String("username", username), zap.Float64("amount", amount))
	gainsMetric.WithLabelValues("won", "").Inc()
	r.record(Event{Tick: tick, Type: PlayerWon, Username: username, Amount: amount})
}

func (r *Recorder) PlayerLost(tick uint, username string, amount float64, reason string) {
	r.logger.Debug("player lost",
		zap.Uint("tick", tick),
		zap.String("username", username),
		zap.Float64("amount", amount),
		zap.String("reason", reason),
	)
	gainsMetric.WithLabelValues("lost", reason).Inc()
	r.record(Event{Tick: tick, Type: PlayerLost, Username: username, Amount: amount, Reason: reason})
}

func (r *Recorder) PlayerOnline(tick uint, username string, online bool) {
	r.logger.Info("player online status changed", zap.Uint("tick", tick), zap.String("username", username), zap.Bool("online", online))
	if online {
		onlineTransitionsMetric.WithLabelValues("true").Inc()
	} else {
		onlineTransitionsMetric.WithLabelValues("false").Inc()
	}
	r.record(Event{Tick: tick, Type: PlayerOnline, Username: username, Online: online})
}

func (r *Recorder) UnsupportedStatus(tick uint, username string, status game.Status) {
	r.logger.Warn("unsupported status", zap.Uint("tick", tick), zap.String("username", username), zap.Stringer("status", status))
	unsupportedMetric.Inc()
	r.record(Event{Tick: tick, Type: UnsupportedStatus, Username: username, Status: status.String()})
}

// InvalidRegistration records a rejected registration attempt, at the tick
// the game is currently at.
func (r *Recorder) InvalidRegistration(tick uint, username, url string) {
	r.logger.Info("invalid registration", zap.String("username", username), zap.String("url", url))
	invalidRegistrationsMetric.Inc()
	r.record(Event{Tick: tick, Type: InvalidRegistration, Username: username, URL: url})
}
