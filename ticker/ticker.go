// Package ticker drives the game, one tick after the other.
package ticker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/logging"
)

var (
	tickDurationMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpaccio",
		Subsystem: "ticker",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a tick",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	currentTickMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carpaccio",
		Subsystem: "ticker",
		Name:      "current_tick",
		Help:      "Last started tick",
	})
)

//go:generate mockgen -package mocks -destination mocks/runner.go . Runner

// Runner plays one tick.
type Runner interface {
	RunTick(ctx context.Context, tick uint) error
}

// Ticker calls the runner serially: the next tick is scheduled interval after
// the previous one returned.
type Ticker struct {
	runner   Runner
	interval time.Duration
	next     uint
	current  atomic.Uint64
}

// New creates a ticker whose first tick is first.
func New(runner Runner, interval time.Duration, first uint) *Ticker {
	t := &Ticker{runner: runner, interval: interval, next: first}
	if first > 0 {
		t.current.Store(uint64(first - 1))
	}
	return t
}

// Current returns the last started tick.
func (t *Ticker) Current() uint {
	return uint(t.current.Load())
}

// Run plays ticks until ctx is done. A failing tick is logged and the game
// goes on with the next one.
func (t *Ticker) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("ticker")
	ctx = logging.NewContext(ctx, logger)
	logger.Info("starting game", zap.Uint("first_tick", t.next), zap.Duration("interval", t.interval))

	timer := time.NewTimer(t.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			tick := t.next
			t.next++
			t.current.Store(uint64(tick))
			currentTickMetric.Set(float64(tick))

			start := time.Now()
			if err := t.runner.RunTick(ctx, tick); err != nil {
				logger.Error("tick failed", zap.Uint("tick", tick), zap.Error(err))
			}
			tickDurationMetric.Observe(time.Since(start).Seconds())
			timer.Reset(t.interval)
		}
	}
}
