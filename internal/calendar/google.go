package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"healthcare-booking-server/internal/config"
	"healthcare-booking-server/internal/models"
)

// GoogleSyncer writes appointments to a Google calendar.
type GoogleSyncer struct {
	events     *gcal.EventsService
	calendarID string
	loc        *time.Location
}

// NewGoogleSyncer authenticates with the service account in cfg. It returns
// nil and no error when no service account is configured.
func NewGoogleSyncer(ctx context.Context, cfg config.GoogleConfig) (*GoogleSyncer, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, nil
	}
	conf := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{gcal.CalendarScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	return NewGoogleSyncerWithService(svc, cfg.CalendarID, cfg.TimeZone)
}

// NewGoogleSyncerWithService wraps an existing calendar client.
func NewGoogleSyncerWithService(svc *gcal.Service, calendarID, timeZone string) (*GoogleSyncer, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("load calendar time zone: %w", err)
	}
	return &GoogleSyncer{events: svc.Events, calendarID: calendarID, loc: loc}, nil
}

func (g *GoogleSyncer) event(a *models.Appointment) (*gcal.Event, error) {
	start, err := StartTime(a, g.loc)
	if err != nil {
		return nil, err
	}
	symptoms := a.Symptoms
	if symptoms == "" {
		symptoms = "N/A"
	}
	ev := &gcal.Event{
		Summary:     "Appointment with " + a.PatientName,
		Description: fmt.Sprintf("Appointment Type: %s\nSymptoms: %s", a.AppointmentType, symptoms),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: g.loc.String()},
		End:         &gcal.EventDateTime{DateTime: start.Add(Duration).Format(time.RFC3339), TimeZone: g.loc.String()},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if a.PatientEmail != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: a.PatientEmail, DisplayName: a.PatientName}}
	}
	return ev, nil
}

// Insert implements EventClient.
func (g *GoogleSyncer) Insert(ctx context.Context, a *models.Appointment) (string, error) {
	ev, err := g.event(a)
	if err != nil {
		return "", err
	}
	created, err := g.events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// Update implements EventClient.
func (g *GoogleSyncer) Update(ctx context.Context, eventID string, a *models.Appointment) error {
	ev, err := g.event(a)
	if err != nil {
		return err
	}
	if _, err := g.events.Patch(g.calendarID, eventID, ev).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return nil
}

// Delete implements EventClient.
func (g *GoogleSyncer) Delete(ctx context.Context, eventID string) error {
	if err := g.events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
