// Package calendar mirrors appointments into external calendars: Google
// Calendar through a service account, and iCalendar documents for Apple
// Calendar and other CalDAV clients.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// Duration is the length of a calendar event for one appointment.
const Duration = 30 * time.Minute

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// StartTime combines the appointment's date with its clock time in loc.
// A missing date or an unparseable time is an error.
func StartTime(a *models.Appointment, loc *time.Location) (time.Time, error) {
	if a.AppointmentDate.IsZero() {
		return time.Time{}, errors.New("appointment has no date")
	}
	if loc == nil {
		loc = time.UTC
	}
	day := a.AppointmentDate.UTC()
	clock := strings.TrimSpace(a.AppointmentTime)
	if clock == "" {
		return day.In(loc), nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid appointment time %q", a.AppointmentTime)
}

// EventClient manages events in a remote calendar.
type EventClient interface {
	Insert(ctx context.Context, a *models.Appointment) (string, error)
	Update(ctx context.Context, eventID string, a *models.Appointment) error
	Delete(ctx context.Context, eventID string) error
}

// Registrar accepts side-effect handlers. *dispatch.Queue implements it.
type Registrar interface {
	On(event dispatch.Event, name string, fn dispatch.Handler)
}

// Sync keeps external calendars in step with the appointment lifecycle and
// records the external event ids on the appointment.
type Sync struct {
	google       EventClient
	apple        *AppleSyncer
	appointments store.Appointments
	log          zerolog.Logger
}

// NewSync creates a Sync. google may be nil when no service account is configured.
func NewSync(google EventClient, apple *AppleSyncer, appointments store.Appointments, log zerolog.Logger) *Sync {
	return &Sync{
		google:       google,
		apple:        apple,
		appointments: appointments,
		log:          log.With().Str("component", "calendar").Logger(),
	}
}

// Register subscribes the calendar handlers.
func (s *Sync) Register(r Registrar) {
	if s.google != nil {
		r.On(dispatch.AppointmentCreated, "google-calendar", s.googleCreated)
		r.On(dispatch.AppointmentRescheduled, "google-calendar", s.googleRescheduled)
		r.On(dispatch.AppointmentCancelled, "google-calendar", s.googleCancelled)
	} else {
		s.log.Info().Msg("google calendar sync disabled")
	}
	if s.apple != nil {
		r.On(dispatch.AppointmentCreated, "apple-calendar", s.appleCreated)
	}
}

func (s *Sync) googleCreated(ctx context.Context, in dispatch.Intent) error {
	if in.Appointment == nil {
		return fmt.Errorf("%s intent without appointment", in.Event)
	}
	id, err := s.google.Insert(ctx, in.Appointment)
	if err != nil {
		return err
	}
	return s.appointments.SetCalendarEvents(ctx, in.Appointment.ID, id, "")
}

func (s *Sync) googleRescheduled(ctx context.Context, in dispatch.Intent) error {
	if in.Appointment == nil {
		return fmt.Errorf("%s intent without appointment", in.Event)
	}
	if in.Appointment.GoogleEventID == "" {
		return s.googleCreated(ctx, in)
	}
	return s.google.Update(ctx, in.Appointment.GoogleEventID, in.Appointment)
}

func (s *Sync) googleCancelled(ctx context.Context, in dispatch.Intent) error {
	if in.Appointment == nil {
		return fmt.Errorf("%s intent without appointment", in.Event)
	}
	if in.Appointment.GoogleEventID == "" {
		return nil
	}
	return s.google.Delete(ctx, in.Appointment.GoogleEventID)
}

func (s *Sync) appleCreated(ctx context.Context, in dispatch.Intent) error {
	if in.Appointment == nil {
		return fmt.Errorf("%s intent without appointment", in.Event)
	}
	// Rendering validates the date before an id is recorded.
	if _, err := s.apple.ICS(in.Appointment); err != nil {
		return err
	}
	return s.appointments.SetCalendarEvents(ctx, in.Appointment.ID, "", s.apple.EventUID(in.Appointment))
}
