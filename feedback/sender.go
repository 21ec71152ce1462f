// Package feedback tells the sellers how they did on each tick.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/extremecarpaccio/carpaccio/game"
	"github.com/extremecarpaccio/carpaccio/logging"
)

const (
	DefaultPath      = "/feedback"
	DefaultQueueSize = 1024
	DefaultWorkers   = 8
	DefaultRetryMax  = 2
	DefaultTimeout   = 5 * time.Second
)

var deliveriesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "carpaccio",
	Subsystem: "feedback",
	Name:      "deliveries_total",
	Help:      "Number of feedback messages by delivery result",
}, []string{"result"})

// Message is the body POSTed to the seller.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewMessage describes a feedback to the seller.
func NewMessage(fb game.Feedback) Message {
	switch {
	case fb.Kind == game.Win:
		return Message{Type: "WIN", Content: fmt.Sprintf("Hey, well done! You won %.2f", fb.Amount)}
	case fb.Error:
		return Message{
			Type:    "ERROR",
			Content: fmt.Sprintf("Something went wrong (%s), you lose %.2f", fb.Outcome.Status, -fb.Amount),
		}
	default:
		return Message{Type: "LOSS", Content: fmt.Sprintf("Oops, wrong answer, you lose %.2f", -fb.Amount)}
	}
}

// Directory resolves the address of a seller.
type Directory interface {
	Get(username string) (game.Player, error)
}

type delivery struct {
	tick     uint
	username string
	message  Message
}

// Sender delivers feedback asynchronously. Notify never blocks: messages that
// do not fit in the queue are dropped.
type Sender struct {
	directory Directory
	client    *retryablehttp.Client
	path      string
	workers   int
	queue     chan delivery
	logger    *zap.Logger
}

type Config struct {
	Path      string        `long:"path"      description:"Path of the sellers' feedback endpoint"`
	QueueSize int           `long:"queue"     description:"Number of pending feedback messages before dropping new ones"`
	Workers   int           `long:"workers"   description:"Number of concurrent feedback deliveries"`
	RetryMax  int           `long:"retry-max" description:"Retries of a failed delivery"`
	Timeout   time.Duration `long:"timeout"   description:"Timeout of one delivery attempt"`
}

func DefaultConfig() Config {
	return Config{
		Path:      DefaultPath,
		QueueSize: DefaultQueueSize,
		Workers:   DefaultWorkers,
		RetryMax:  DefaultRetryMax,
		Timeout:   DefaultTimeout,
	}
}

func New(ctx context.Context, directory Directory, cfg Config) *Sender {
	logger := logging.FromContext(ctx).Named("feedback")

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 10 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = leveledLogger{logger.Sugar()}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Sender{
		directory: directory,
		client:    client,
		path:      cfg.Path,
		workers:   workers,
		queue:     make(chan delivery, cfg.QueueSize),
		logger:    logger,
	}
}

// Notify implements game.FeedbackSender.
func (s *Sender) Notify(tick uint, fb game.Feedback) {
	d := delivery{tick: tick, username: fb.Outcome.Username, message: NewMessage(fb)}
	select {
	case s.queue <- d:
	default:
		deliveriesMetric.WithLabelValues("dropped").Inc()
		s.logger.Warn("feedback queue is full, dropping message",
			zap.Uint("tick", tick),
			zap.String("username", d.username),
		)
	}
}

// Run delivers queued messages until ctx is done.
func (s *Sender) Run(ctx context.Context) error {
	var eg errgroup.Group
	for i := 0; i < s.workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d := <-s.queue:
					s.deliver(ctx, d)
				}
			}
		})
	}
	return eg.Wait()
}

func (s *Sender) deliver(ctx context.Context, d delivery) {
	logger := s.logger.With(zap.Uint("tick", d.tick), zap.String("username", d.username))
	if err := s.post(ctx, d); err != nil {
		deliveriesMetric.WithLabelValues("failed").Inc()
		logger.Debug("feedback not delivered", zap.Error(err))
		return
	}
	deliveriesMetric.WithLabelValues("delivered").Inc()
	logger.Debug("feedback delivered", zap.String("type", d.message.Type))
}

func (s *Sender) post(ctx context.Context, d delivery) error {
	p, err := s.directory.Get(d.username)
	if err != nil {
		return err
	}
	base, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("parsing seller url: %w", err)
	}
	body, err := json.Marshal(d.message)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, base.JoinPath(s.path).String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %s", res.Status)
	}
	return nil
}

// leveledLogger routes the client's logs to zap.
type leveledLogger struct {
	*zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) { l.Errorw(msg, keysAndValues...) }
func (l leveledLogger) Info(msg string, keysAndValues ...any)  { l.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Debug(msg string, keysAndValues ...any) { l.Debugw(msg, keysAndValues...) }
func (l leveledLogger) Warn(msg string, keysAndValues ...any)  { l.Warnw(msg, keysAndValues...) }
