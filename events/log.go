package events

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/logging"
)

const (
	DefaultFlushInterval = time.Second
	DefaultMaxBatchSize  = 1000
	DefaultQueueSize     = 10000
)

var (
	eventPrefix = []byte("event/")

	batchWriteLatencyMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carpaccio",
		Subsystem: "events",
		Name:      "batch_write_latency_seconds",
		Help:      "Latency of event batch writes",
		Buckets:   prometheus.ExponentialBuckets(0.001, 1.5, 20),
	})

	droppedEventsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "carpaccio",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Number of events not persisted because the queue was full",
	})
)

type eventRecord struct {
	ID       string
	Tick     uint64
	Type     string
	Username string
	Amount   float64
	Reason   string
	Online   bool
	Status   string
	URL      string
	Error    string
	Time     int64
}

// Log persists events ordered by tick, then by arrival.
// Record only queues the event; Run writes the queue in batches.
type Log struct {
	db      *leveldb.DB
	pending chan Event
	seq     uint64

	flushInterval time.Duration
	maxBatchSize  int
}

type newLogOptions struct {
	flushInterval time.Duration
	maxBatchSize  int
	queueSize     int
}

type newLogOptionFunc func(*newLogOptions)

func WithFlushInterval(interval time.Duration) newLogOptionFunc {
	return func(opts *newLogOptions) {
		opts.flushInterval = interval
	}
}

func WithMaxBatchSize(size int) newLogOptionFunc {
	return func(opts *newLogOptions) {
		opts.maxBatchSize = size
	}
}

func WithQueueSize(size int) newLogOptionFunc {
	return func(opts *newLogOptions) {
		opts.queueSize = size
	}
}

func OpenLog(dbdir string, opts ...newLogOptionFunc) (*Log, error) {
	options := newLogOptions{
		flushInterval: DefaultFlushInterval,
		maxBatchSize:  DefaultMaxBatchSize,
		queueSize:     DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dbPath := filepath.Join(dbdir, "events")
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database @ %s: %w", dbPath, err)
	}
	l := &Log{
		db:            db,
		pending:       make(chan Event, options.queueSize),
		flushInterval: options.flushInterval,
		maxBatchSize:  options.maxBatchSize,
	}
	if l.seq, err = l.lastSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// lastSeq finds the sequence number of the last stored event, so that events
// of a tick replayed after a restart sort after the ones already stored.
func (l *Log) lastSeq() (uint64, error) {
	iter := l.db.NewIterator(util.BytesPrefix(eventPrefix), nil)
	defer iter.Release()
	if !iter.Last() {
		return 0, iter.Error()
	}
	key := iter.Key()
	if len(key) != len(eventPrefix)+16 {
		return 0, fmt.Errorf("malformed event key %x", key)
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Record implements Sink.
func (l *Log) Record(e Event) {
	select {
	case l.pending <- e:
	default:
		droppedEventsMetric.Inc()
	}
}

// Run writes the queued events until ctx is done, then flushes what is left.
func (l *Log) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("events")
	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	batch := leveldb.MakeBatch(l.maxBatchSize)
	flush := func() {
		if batch.Len() == 0 {
			return
		}
		logger.Debug("flushing events", zap.Int("num", batch.Len()))
		start := time.Now()
		if err := l.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
			logger.Error("failed to write events", zap.Int("num", batch.Len()), zap.Error(err))
		} else {
			batchWriteLatencyMetric.Observe(time.Since(start).Seconds())
		}
		batch.Reset()
	}
	add := func(e Event) {
		l.seq++
		data, err := encode(e)
		if err != nil {
			logger.Error("failed to encode event", zap.Error(err))
			return
		}
		batch.Put(eventKey(e.Tick, l.seq), data)
		if batch.Len() >= l.maxBatchSize {
			flush()
		}
	}

	for {
		select {
		case e := <-l.pending:
			add(e)
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case e := <-l.pending:
					add(e)
				default:
					flush()
					return nil
				}
			}
		}
	}
}

func eventKey(tick uint, seq uint64) []byte {
	key := make([]byte, 0, len(eventPrefix)+16)
	key = append(key, eventPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(tick))
	return binary.BigEndian.AppendUint64(key, seq)
}

// Since returns at most limit persisted events of ticks from fromTick onward.
func (l *Log) Since(fromTick uint, limit int) ([]Event, error) {
	iter := l.db.NewIterator(&util.Range{
		Start: eventKey(fromTick, 0),
		Limit: util.BytesPrefix(eventPrefix).Limit,
	}, nil)
	defer iter.Release()

	events := []Event{}
	for iter.Next() && len(events) < limit {
		e, err := decode(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("event %x: %w", iter.Key(), err)
		}
		events = append(events, e)
	}
	return events, iter.Error()
}

func encode(e Event) ([]byte, error) {
	rec := eventRecord{
		ID:       e.ID.String(),
		Tick:     uint64(e.Tick),
		Type:     string(e.Type),
		Username: e.Username,
		Amount:   e.Amount,
		Reason:   e.Reason,
		Online:   e.Online,
		Status:   e.Status,
		URL:      e.URL,
		Error:    e.Error,
		Time:     e.Time.UnixNano(),
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &rec); err != nil {
		return nil, fmt.Errorf("serialization failure: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (Event, error) {
	var rec eventRecord
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &rec); err != nil {
		return Event{}, fmt.Errorf("failed to deserialize: %w", err)
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return Event{}, fmt.Errorf("parsing event id: %w", err)
	}
	return Event{
		ID:       id,
		Tick:     uint(rec.Tick),
		Type:     Type(rec.Type),
		Username: rec.Username,
		Amount:   rec.Amount,
		Reason:   rec.Reason,
		Online:   rec.Online,
		Status:   rec.Status,
		URL:      rec.URL,
		Error:    rec.Error,
		Time:     time.Unix(0, rec.Time),
	}, nil
}
