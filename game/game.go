package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/logging"
)

//go:generate mockgen -package mocks -destination mocks/game.go . Players,QuestionGenerator,Dispatcher,FeedbackSender,Listener

// Randomizer is the source of randomness used to generate questions.
type Randomizer interface {
	Intn(n int) int
	Float64() float64
}

type QuestionGenerator interface {
	NextQuestion(tick uint, rnd Randomizer) Question
}

// Players is the registry owning players' state.
// It must be safe for concurrent use.
type Players interface {
	All() []Player
	AddCash(username string, delta float64) error
	MarkOnline(username string, online bool) error
	// SaveState checkpoints the balances of every player for the tick.
	SaveState(ctx context.Context, tick uint) error
}

type Dispatcher interface {
	// Dispatch sends the question to the player and classifies the result.
	// A failure to reach the player is reported through the Outcome status;
	// an error means the tick cannot go on.
	Dispatch(ctx context.Context, tick uint, q Question, p Player) (Outcome, error)
}

type FeedbackSender interface {
	// Notify must not block.
	Notify(tick uint, fb Feedback)
}

// Listener receives the observable events of the game.
// Calls come from concurrent pipelines and must not block.
type Listener interface {
	IterationStarting(tick uint)
	IterationCompleted(tick uint)
	IterationFailed(tick uint, err error)
	DispatchingQuestion(tick uint, q Question, p Player)
	PlayerWon(tick uint, username string, amount float64)
	PlayerLost(tick uint, username string, amount float64, reason string)
	PlayerOnline(tick uint, username string, online bool)
	UnsupportedStatus(tick uint, username string, status Status)
}

var ErrPipelinePanic = errors.New("player pipeline panicked")

const (
	DefaultOfflinePenalty = -100
	DefaultErrorPenalty   = -200
)

// Game orchestrates ticks. RunTick must not be called concurrently.
type Game struct {
	players    Players
	questions  QuestionGenerator
	dispatcher Dispatcher
	feedback   FeedbackSender
	listener   Listener
	rnd        Randomizer

	offlinePenalty float64
	errorPenalty   float64
}

type newGameOptions struct {
	rnd            Randomizer
	offlinePenalty float64
	errorPenalty   float64
}

type newGameOptionFunc func(*newGameOptions)

func WithRandomizer(rnd Randomizer) newGameOptionFunc {
	return func(opts *newGameOptions) {
		opts.rnd = rnd
	}
}

// WithPenalties sets the system-wide penalties of offline and failing players.
func WithPenalties(offline, failure float64) newGameOptionFunc {
	return func(opts *newGameOptions) {
		opts.offlinePenalty = offline
		opts.errorPenalty = failure
	}
}

func New(
	players Players,
	questions QuestionGenerator,
	dispatcher Dispatcher,
	feedback FeedbackSender,
	listener Listener,
	opts ...newGameOptionFunc,
) *Game {
	options := newGameOptions{
		offlinePenalty: DefaultOfflinePenalty,
		errorPenalty:   DefaultErrorPenalty,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.rnd == nil {
		options.rnd = rand.New(rand.NewSource(1))
	}

	return &Game{
		players:        players,
		questions:      questions,
		dispatcher:     dispatcher,
		feedback:       feedback,
		listener:       listener,
		rnd:            options.rnd,
		offlinePenalty: options.offlinePenalty,
		errorPenalty:   options.errorPenalty,
	}
}

// RunTick plays one tick: one question, dispatched to every player.
// The balances are checkpointed only if every player's pipeline completed.
// On the first failing pipeline the tick is abandoned and the error returned.
func (g *Game) RunTick(ctx context.Context, tick uint) error {
	logger := logging.FromContext(ctx).With(zap.Uint("tick", tick))
	ctx = logging.NewContext(ctx, logger)

	g.listener.IterationStarting(tick)
	q := g.questions.NextQuestion(tick, g.rnd)
	players := g.players.All()

	// Cancelled on return so that a failed tick does not wait for stragglers.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(len(players))
	for _, p := range players {
		p := p
		go func() {
			defer wg.Done()
			if err := g.process(ctx, tick, q, p); err != nil {
				select {
				case errs <- fmt.Errorf("player %s: %w", p.Username, err):
				default:
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var err error
	select {
	case err = <-errs:
	case <-done:
		// The last pipelines may have failed just before completion.
		select {
		case err = <-errs:
		default:
		}
	}
	if err != nil {
		g.listener.IterationFailed(tick, err)
		return err
	}

	if err := g.players.SaveState(ctx, tick); err != nil {
		err = fmt.Errorf("saving state: %w", err)
		g.listener.IterationFailed(tick, err)
		return err
	}
	logger.Debug("tick settled", zap.Int("players", len(players)))
	g.listener.IterationCompleted(tick)
	return nil
}

// process is the pipeline of one player: dispatch, evaluate, mutate, notify.
func (g *Game) process(ctx context.Context, tick uint, q Question, p Player) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPipelinePanic, r)
		}
	}()

	g.listener.DispatchingQuestion(tick, q, p)
	o, err := g.dispatcher.Dispatch(ctx, tick, q, p)
	if err != nil {
		return fmt.Errorf("dispatching question: %w", err)
	}
	if ctx.Err() != nil {
		// The outcome is dropped: the tick cannot be checkpointed without it.
		logging.FromContext(ctx).Debug("dropping outcome of abandoned tick", zap.String("username", p.Username))
		return fmt.Errorf("tick abandoned: %w", ctx.Err())
	}

	o.Username = p.Username
	o.PlayerOnline = p.Online
	o.Rates = Rates{
		GainAmount:     q.GainAmount(),
		GainPenalty:    q.GainPenalty(),
		OfflinePenalty: g.offlinePenalty,
		ErrorPenalty:   g.errorPenalty,
	}

	fb, err := g.apply(ctx, tick, o)
	if err != nil {
		return err
	}
	if fb.HasFeedback() {
		g.feedback.Notify(tick, fb)
	}
	return nil
}

// apply evaluates the outcome and performs the resulting mutations.
func (g *Game) apply(ctx context.Context, tick uint, o Outcome) (Feedback, error) {
	d := Evaluate(o)
	switch d.Verdict {
	case Won:
		if err := g.players.AddCash(o.Username, d.Delta); err != nil {
			return Feedback{}, fmt.Errorf("adding cash: %w", err)
		}
		g.listener.PlayerWon(tick, o.Username, d.Delta)
	case Lost:
		if err := g.players.AddCash(o.Username, d.Delta); err != nil {
			return Feedback{}, fmt.Errorf("adding cash: %w", err)
		}
		g.listener.PlayerLost(tick, o.Username, d.Delta, d.Reason)
	default:
		logging.FromContext(ctx).Warn("unsupported status", zap.Object("outcome", o))
		g.listener.UnsupportedStatus(tick, o.Username, o.Status)
	}

	if d.Online != o.PlayerOnline {
		if err := g.players.MarkOnline(o.Username, d.Online); err != nil {
			return Feedback{}, fmt.Errorf("marking player online=%v: %w", d.Online, err)
		}
		g.listener.PlayerOnline(tick, o.Username, d.Online)
	}
	return d.Feedback, nil
}
