// Package reminder finds upcoming appointments and emits reminder intents.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// Window is a reminder horizon: appointments whose date falls in
// [now+Before, now+Before+1h) are reminded.
type Window struct {
	Before time.Duration
}

// Hours is the window's lead time in whole hours.
func (w Window) Hours() int {
	return int(w.Before / time.Hour)
}

// Windows are the default reminder horizons.
var Windows = []Window{{Before: 24 * time.Hour}, {Before: time.Hour}}

const windowWidth = time.Hour

// Result counts the reminders emitted per window, keyed by lead hours.
type Result map[int]int

// Scanner looks up due appointments. It never modifies them.
type Scanner struct {
	appointments store.Appointments
	dispatcher   dispatch.Dispatcher
	metrics      *metrics.Metrics
	windows      []Window
	log          zerolog.Logger
}

// NewScanner creates a Scanner over the default windows.
func NewScanner(appointments store.Appointments, d dispatch.Dispatcher, m *metrics.Metrics, log zerolog.Logger) *Scanner {
	return &Scanner{
		appointments: appointments,
		dispatcher:   d,
		metrics:      m,
		windows:      Windows,
		log:          log.With().Str("component", "reminder").Logger(),
	}
}

// Scan emits a reminder intent for every pending or confirmed appointment
// due in one of the windows. A failing window is logged and skipped.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Result, error) {
	res := Result{}
	var firstErr error
	for _, w := range s.windows {
		from := now.Add(w.Before)
		to := from.Add(windowWidth)
		due, err := s.appointments.List(ctx, store.AppointmentFilter{
			Statuses: []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed},
			From:     &from,
			To:       &to,
		})
		if err != nil {
			s.log.Error().Err(err).Int("hours_before", w.Hours()).Msg("reminder window lookup failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("list appointments due in %dh: %w", w.Hours(), err)
			}
			continue
		}
		for i := range due {
			a := due[i]
			s.dispatcher.Dispatch(dispatch.Intent{
				Event:       dispatch.AppointmentReminder,
				Appointment: &a,
				HoursBefore: w.Hours(),
			})
			s.metrics.Reminder(fmt.Sprintf("%dh", w.Hours()))
		}
		res[w.Hours()] = len(due)
	}
	s.log.Info().Int("day_before", res[24]).Int("hour_before", res[1]).Msg("reminder scan finished")
	return res, firstErr
}

// Scheduler runs a Scanner on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	scanner *Scanner
	log     zerolog.Logger
	now     func() time.Time
}

// NewScheduler registers scanner on spec, a standard five-field cron expression.
func NewScheduler(spec string, scanner *Scanner, log zerolog.Logger) (*Scheduler, error) {
	logger := cronLogger{log: log.With().Str("component", "cron").Logger()}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		scanner: scanner,
		log:     log,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.scanner.Scan(ctx, s.now()); err != nil {
		s.log.Error().Err(err).Msg("reminder scan failed")
	}
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running scan, or ctx, to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
