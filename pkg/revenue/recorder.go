// Package revenue emits best-effort revenue events for product analytics.
//
// Recording never blocks and never fails the originating request: events
// go through a buffered channel to a single sink goroutine, and when the
// buffer is full the event is dropped and counted, not waited on.
package revenue

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/complyscan/complyscan/pkg/auth"
	"github.com/complyscan/complyscan/pkg/observability"
)

// EventType identifies a revenue-relevant event
type EventType string

const (
	EventSignup              EventType = "signup"
	EventSubscriptionCreated EventType = "subscription_created"
	EventCreditsPurchased    EventType = "credits_purchased"
	EventFixGenerated        EventType = "fix_generated"
	EventGateDenied          EventType = "gate_denied"
)

// Event is a single revenue event
type Event struct {
	Type      EventType
	Subject   string
	Email     string
	Tier      string
	Meta      map[string]interface{}
	Timestamp time.Time
}

const defaultBufferSize = 1024

// Recorder buffers events and writes them through a logrus JSON sink.
type Recorder struct {
	events  chan Event
	sink    *logrus.Logger
	metrics *observability.Metrics

	recorded atomic.Uint64
	dropped  atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewRecorder creates a Recorder writing JSON events to output (stdout
// when nil). metrics may be nil.
func NewRecorder(output io.Writer, metrics *observability.Metrics) *Recorder {
	if output == nil {
		output = os.Stdout
	}

	sink := logrus.New()
	sink.SetOutput(output)
	sink.SetFormatter(&logrus.JSONFormatter{})

	r := &Recorder{
		events:  make(chan Event, defaultBufferSize),
		sink:    sink,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues an event without blocking. A full buffer drops the
// event; revenue logging must never back-pressure a request.
func (r *Recorder) Record(eventType EventType, identity auth.Identity, meta map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Subject:   identity.Subject,
		Email:     identity.Email,
		Tier:      string(identity.Tier),
		Meta:      meta,
		Timestamp: time.Now(),
	}

	select {
	case r.events <- event:
		r.recorded.Add(1)
		if r.metrics != nil {
			r.metrics.RevenueEventsTotal.WithLabelValues(string(eventType)).Inc()
		}
	default:
		r.dropped.Add(1)
		if r.metrics != nil {
			r.metrics.RevenueEventsDropped.Inc()
		}
	}
}

// Stats returns lifetime accepted and dropped event counts.
func (r *Recorder) Stats() (recorded, dropped uint64) {
	return r.recorded.Load(), r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.events {
		r.emit(event)
	}
}

func (r *Recorder) emit(event Event) {
	// logrus never returns an error to the caller here; a broken sink
	// writer loses the line, which is the contract.
	defer func() { recover() }()

	fields := logrus.Fields{
		"event_type": string(event.Type),
		"subject":    event.Subject,
		"email":      event.Email,
		"tier":       event.Tier,
		"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range event.Meta {
		fields["meta_"+k] = v
	}
	r.sink.WithFields(fields).Info("revenue event")
}

// Close drains buffered events and stops the sink goroutine.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.events)
		<-r.done
	})
}
