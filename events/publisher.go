package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/logging"
)

var publishedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "carpaccio",
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Number of events sent to the message broker by result",
}, []string{"result"})

type PublisherConfig struct {
	URL            string        `long:"amqp-url"       description:"AMQP URI of the broker receiving the events, publishing is disabled if empty"`
	Exchange       string        `long:"amqp-exchange"  description:"Name of the fanout exchange the events are published to"`
	QueueSize      int           `long:"amqp-queue"     description:"Number of events waiting to be published before dropping new ones"`
	ReconnectDelay time.Duration `long:"amqp-reconnect" description:"Delay before reconnecting to the broker"`
}

func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Exchange:       "carpaccio.events",
		QueueSize:      DefaultQueueSize,
		ReconnectDelay: 5 * time.Second,
	}
}

// Publisher sends events as JSON to a fanout exchange.
type Publisher struct {
	cfg     PublisherConfig
	pending chan Event
}

func NewPublisher(cfg PublisherConfig) *Publisher {
	return &Publisher{cfg: cfg, pending: make(chan Event, cfg.QueueSize)}
}

// Record implements Sink.
func (p *Publisher) Record(e Event) {
	select {
	case p.pending <- e:
	default:
		publishedMetric.WithLabelValues("dropped").Inc()
	}
}

// Run publishes queued events until ctx is done, reconnecting to the broker
// whenever the connection is lost.
func (p *Publisher) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("publisher").With(zap.String("exchange", p.cfg.Exchange))
	for {
		err := p.publish(ctx, logger)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("lost connection to the broker", zap.Error(err), zap.Duration("retry_in", p.cfg.ReconnectDelay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.cfg.ReconnectDelay):
		}
	}
}

func (p *Publisher) publish(ctx context.Context, logger *zap.Logger) error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	logger.Info("publishing events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case e := <-p.pending:
			body, err := json.Marshal(e)
			if err != nil {
				publishedMetric.WithLabelValues("failed").Inc()
				continue
			}
			err = ch.PublishWithContext(ctx, p.cfg.Exchange, string(e.Type), false, false, amqp.Publishing{
				ContentType: "application/json",
				MessageId:   e.ID.String(),
				Timestamp:   e.Time,
				Type:        string(e.Type),
				Body:        body,
			})
			if err != nil {
				publishedMetric.WithLabelValues("failed").Inc()
				return fmt.Errorf("publishing event: %w", err)
			}
			publishedMetric.WithLabelValues("published").Inc()
		}
	}
}
