package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the queue size used when none is configured
const DefaultBuffer = 256

// sinkTimeout bounds a single delivery to one sink
const sinkTimeout = 5 * time.Second

// Sink receives delivered events
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Recorder queues events and delivers them to its sinks on one goroutine.
// Emit never blocks: when the queue is full the event is dropped.
type Recorder struct {
	events  chan Event
	sinks   []Sink
	log     zerolog.Logger
	dropped atomic.Int64
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a recorder with the given queue size
func NewRecorder(buffer int, log zerolog.Logger, sinks ...Sink) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	r := &Recorder{
		events: make(chan Event, buffer),
		sinks:  sinks,
		log:    log.With().Str("component", "telemetry").Logger(),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Emit queues an event without waiting for delivery
func (r *Recorder) Emit(e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be delivered
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.events {
		for _, s := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := s.Record(ctx, e); err != nil {
				r.log.Warn().Err(err).
					Str("kind", string(e.Kind)).
					Str("broker", e.Broker).
					Msg("Telemetry delivery failed")
			}
			cancel()
		}
	}
}

// LogSink writes events to a structured logger
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a log sink
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Record logs the event at info level
func (s *LogSink) Record(_ context.Context, e Event) error {
	s.log.Info().
		Str("event_id", e.ID.String()).
		Str("kind", string(e.Kind)).
		Str("broker", e.Broker).
		Int("rows", e.Rows).
		Int("invalid", e.Invalid).
		Int("trades", e.Trades).
		Int64("duration_ms", e.DurationMs).
		Msg("Import event")
	return nil
}
