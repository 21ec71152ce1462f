// Package dispatch sends questions to sellers over HTTP.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultQuestionPath = "/order"

	maxResponseSize = 64 << 10
)

var (
	dispatchLatencyMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpaccio",
		Subsystem: "dispatch",
		Name:      "latency_seconds",
		Help:      "Latency of questions sent to the sellers",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	dispatchStatusMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "dispatch",
		Name:      "outcomes_total",
		Help:      "Number of dispatched questions by outcome status",
	}, []string{"status"})
)

// HTTPDispatcher POSTs the question to the seller and classifies what
// happened. It never retries: a seller gets one chance per tick.
type HTTPDispatcher struct {
	client       *http.Client
	timeout      time.Duration
	questionPath string
}

type newDispatcherOptions struct {
	client       *http.Client
	timeout      time.Duration
	questionPath string
}

type newDispatcherOptionFunc func(*newDispatcherOptions)

// WithTimeout sets how long a seller has to answer.
func WithTimeout(timeout time.Duration) newDispatcherOptionFunc {
	return func(opts *newDispatcherOptions) {
		opts.timeout = timeout
	}
}

func WithQuestionPath(path string) newDispatcherOptionFunc {
	return func(opts *newDispatcherOptions) {
		opts.questionPath = path
	}
}

func WithClient(client *http.Client) newDispatcherOptionFunc {
	return func(opts *newDispatcherOptions) {
		opts.client = client
	}
}

func New(opts ...newDispatcherOptionFunc) *HTTPDispatcher {
	options := newDispatcherOptions{
		timeout:      DefaultTimeout,
		questionPath: DefaultQuestionPath,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.client == nil {
		options.client = &http.Client{}
	}
	return &HTTPDispatcher{
		client:       options.client,
		timeout:      options.timeout,
		questionPath: options.questionPath,
	}
}

// Dispatch implements game.Dispatcher. Failing sellers are reported through
// the outcome status. An error is returned only when the question cannot be
// encoded or when ctx itself is done.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, tick uint, q game.Question, p game.Player) (game.Outcome, error) {
	logger := logging.FromContext(ctx).With(zap.String("username", p.Username))

	target, err := questionURL(p.URL, d.questionPath)
	if err != nil {
		logger.Debug("not sending question", zap.Error(err))
		return d.outcome(game.NotSent), nil
	}
	body, err := json.Marshal(q.Payload())
	if err != nil {
		return game.Outcome{}, fmt.Errorf("encoding question of tick %d: %w", tick, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		logger.Debug("not sending question", zap.Error(err))
		return d.outcome(game.NotSent), nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	status, accepted, invalid, err := d.exchange(req, q)
	dispatchLatencyMetric.Observe(time.Since(start).Seconds())
	if ctx.Err() != nil {
		return game.Outcome{}, fmt.Errorf("dispatching to %s: %w", p.Username, ctx.Err())
	}
	if err != nil {
		logger.Debug("seller failed", zap.Stringer("status", status), zap.Error(err))
	}

	o := d.outcome(status)
	o.ResponseAccepted = accepted
	o.InvalidQuestion = invalid
	return o, nil
}

func (d *HTTPDispatcher) exchange(req *http.Request, q game.Question) (status game.Status, accepted, invalid bool, err error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return classify(err), false, false, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return classify(err), false, false, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if len(bytes.TrimSpace(data)) == 0 {
			return game.NoResponseReceived, false, false, nil
		}
		var answer game.Answer
		if err := json.Unmarshal(data, &answer); err != nil {
			return game.InvalidResponse, false, false, err
		}
		if answer.Empty() {
			return game.InvalidResponse, false, false, errors.New("answer has neither total nor response")
		}
		return game.OK, q.Accepts(answer), false, nil
	case http.StatusNoContent:
		return game.NoResponseReceived, false, false, nil
	case http.StatusBadRequest:
		return game.QuestionRejected, false, q.Invalid(), nil
	default:
		return game.Error, false, false, fmt.Errorf("unexpected status %s", resp.Status)
	}
}

func (d *HTTPDispatcher) outcome(status game.Status) game.Outcome {
	dispatchStatusMetric.WithLabelValues(status.String()).Inc()
	return game.Outcome{Status: status}
}

func questionURL(raw, path string) (string, error) {
	if raw == "" {
		return "", errors.New("seller has no url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing seller url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("seller url %q is not an absolute http(s) url", raw)
	}
	return u.JoinPath(path).String(), nil
}

// classify maps a transport error to the status of the dispatch.
func classify(err error) game.Status {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return game.Timeout
	case errors.As(err, &dnsErr), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.EHOSTUNREACH):
		return game.UnreachablePlayer
	case errors.As(err, &netErr) && netErr.Timeout():
		return game.Timeout
	default:
		return game.Error
	}
}
