package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"healthcare-booking-server/internal/models"
)

// AppleSyncer renders appointments as iCalendar documents that Apple
// Calendar can subscribe to or import.
type AppleSyncer struct {
	domain string
	loc    *time.Location
	now    func() time.Time
}

// NewAppleSyncer creates an AppleSyncer. domain qualifies event UIDs.
func NewAppleSyncer(domain string, loc *time.Location) *AppleSyncer {
	if domain == "" {
		domain = "healthcare-booking"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AppleSyncer{domain: domain, loc: loc, now: time.Now}
}

// EventUID is the stable iCalendar UID of an appointment.
func (s *AppleSyncer) EventUID(a *models.Appointment) string {
	return a.ID + "@" + s.domain
}

// ICS renders a as a VCALENDAR with one VEVENT. Cancelled appointments are
// rendered with METHOD:CANCEL so clients remove the event.
func (s *AppleSyncer) ICS(a *models.Appointment) (string, error) {
	start, err := StartTime(a, s.loc)
	if err != nil {
		return "", err
	}

	method, status := ics.MethodRequest, ics.ObjectStatusTentative
	switch a.Status {
	case models.StatusCancelled:
		method, status = ics.MethodCancel, ics.ObjectStatusCancelled
	case models.StatusConfirmed, models.StatusCompleted:
		status = ics.ObjectStatusConfirmed
	}

	cal := ics.NewCalendar()
	cal.SetProductId("-//Healthcare Booking//Appointment Booking//EN")
	cal.SetMethod(method)

	ev := cal.AddEvent(s.EventUID(a))
	ev.SetDtStampTime(s.now().UTC())
	ev.SetCreatedTime(a.CreatedAt.UTC())
	ev.SetModifiedAt(a.UpdatedAt.UTC())
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(Duration))
	ev.SetSummary("Appointment with " + a.PatientName)
	ev.SetDescription("Appointment Type: " + string(a.AppointmentType))
	if a.AppointmentType == models.TypeOnline {
		ev.SetLocation("Online")
	} else {
		ev.SetLocation("In-Clinic")
	}

	ev.SetStatus(status)

	return cal.Serialize(), nil
}
