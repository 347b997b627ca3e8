// Package dispatch runs best-effort side effects off the request path.
//
// Services emit an Intent and return; registered handlers run later on a
// small worker pool. A handler's failure, panic or timeout is logged and
// counted, never reported to the code that emitted the intent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/models"
)

// Event names a lifecycle occurrence.
type Event string

const (
	AppointmentCreated     Event = "appointment.created"
	AppointmentCancelled   Event = "appointment.cancelled"
	AppointmentRescheduled Event = "appointment.rescheduled"
	AppointmentReminder    Event = "appointment.reminder"
	ReviewReceived         Event = "review.received"
	PrescriptionIssued     Event = "prescription.issued"
	DoctorApproved         Event = "doctor.approved"
	DoctorRejected         Event = "doctor.rejected"
)

// Intent carries the minimal payload a side effect needs. Pointers are
// snapshots owned by the intent.
type Intent struct {
	Event        Event
	Appointment  *models.Appointment
	ActorID      string
	Review       *models.Review
	Prescription *models.Prescription
	Account      *models.UserSanitized
	Reason       string
	HoursBefore  int
}

// Dispatcher accepts intents without blocking.
type Dispatcher interface {
	Dispatch(in Intent)
}

// Handler performs one side effect.
type Handler func(ctx context.Context, in Intent) error

type namedHandler struct {
	name string
	fn   Handler
}

// Options tunes a Queue.
type Options struct {
	Workers        int
	QueueSize      int
	HandlerTimeout time.Duration
}

// Queue is an in-process Dispatcher backed by a buffered channel.
type Queue struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	opts    Options

	mu       sync.RWMutex
	handlers map[Event][]namedHandler
	closed   bool

	ch      chan Intent
	wg      sync.WaitGroup
	started sync.Once
}

// NewQueue creates a Queue. Call Start before dispatching.
func NewQueue(log zerolog.Logger, m *metrics.Metrics, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	return &Queue{
		log:      log.With().Str("component", "dispatch").Logger(),
		metrics:  m,
		opts:     opts,
		handlers: map[Event][]namedHandler{},
		ch:       make(chan Intent, opts.QueueSize),
	}
}

// On registers fn for event. Handlers of one event run in registration order.
func (q *Queue) On(event Event, name string, fn Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[event] = append(q.handlers[event], namedHandler{name: name, fn: fn})
}

// Start launches the workers.
func (q *Queue) Start() {
	q.started.Do(func() {
		for i := 0; i < q.opts.Workers; i++ {
			q.wg.Add(1)
			go q.worker()
		}
	})
}

// Dispatch enqueues in. When the queue is full or shut down the intent is dropped.
func (q *Queue) Dispatch(in Intent) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.drop(in, "queue closed")
		return
	}
	select {
	case q.ch <- in:
	default:
		q.drop(in, "queue full")
	}
}

func (q *Queue) drop(in Intent, reason string) {
	q.metrics.Dropped()
	q.log.Warn().
		Str("event", string(in.Event)).
		Str("appointment_id", appointmentID(in)).
		Str("reason", reason).
		Msg("side effect dropped")
}

// Shutdown stops accepting intents and waits for queued ones to finish or ctx to end.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch shutdown: %w", ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for in := range q.ch {
		q.run(in)
	}
}

func (q *Queue) run(in Intent) {
	q.mu.RLock()
	handlers := append([]namedHandler(nil), q.handlers[in.Event]...)
	q.mu.RUnlock()

	for _, h := range handlers {
		err := q.invoke(h, in)
		q.metrics.SideEffect(string(in.Event), h.name, err)
		if err != nil {
			q.log.Warn().Err(err).
				Str("event", string(in.Event)).
				Str("handler", h.name).
				Str("appointment_id", appointmentID(in)).
				Msg("side effect failed")
		}
	}
}

func (q *Queue) invoke(h namedHandler, in Intent) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.HandlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	err = h.fn(ctx, in)
	if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	return err
}

func appointmentID(in Intent) string {
	if in.Appointment != nil {
		return in.Appointment.ID
	}
	if in.Review != nil {
		return in.Review.AppointmentID
	}
	if in.Prescription != nil {
		return in.Prescription.AppointmentID
	}
	return ""
}

// Nop discards every intent.
type Nop struct{}

// Dispatch implements Dispatcher.
func (Nop) Dispatch(Intent) {}
