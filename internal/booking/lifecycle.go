package booking

import (
	"time"

	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
)

// transitions is the appointment lifecycle graph. Completing straight from
// pending is allowed; confirmation is optional.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func invalidTransition(format string, args ...any) error {
	return apperr.Conflict(format, args...).WithCode(apperr.CodeInvalidTransition)
}

func checkCancel(a *models.Appointment) error {
	switch a.Status {
	case models.StatusCancelled:
		return invalidTransition("Appointment is already cancelled")
	case models.StatusCompleted:
		return invalidTransition("Cannot cancel a completed appointment")
	}
	return nil
}

func checkReschedule(a *models.Appointment) error {
	switch a.Status {
	case models.StatusCancelled:
		return invalidTransition("Cannot reschedule a cancelled appointment")
	case models.StatusCompleted:
		return invalidTransition("Cannot reschedule a completed appointment")
	}
	return nil
}

// checkComplete lets completion skip the confirm step and repeat on a
// completed appointment. Cancelled appointments are the one refusal: nothing
// leaves cancelled.
func checkComplete(a *models.Appointment) error {
	if a.Status == models.StatusCancelled {
		return invalidTransition("Cannot complete a cancelled appointment")
	}
	return nil
}

func checkConfirm(a *models.Appointment) error {
	if a.Status != models.StatusPending {
		return invalidTransition("Only pending appointments can be confirmed")
	}
	return nil
}

func checkPrescribe(a *models.Appointment) error {
	if a.Status == models.StatusCancelled {
		return invalidTransition("Cannot add a prescription to a cancelled appointment")
	}
	if a.PrescriptionID != "" {
		return apperr.Conflict("A prescription has already been issued for this appointment")
	}
	return nil
}

const defaultCancellationReason = "No reason provided"

func applyCancel(a *models.Appointment, actorID, reason string, now time.Time) {
	if reason == "" {
		reason = defaultCancellationReason
	}
	a.Status = models.StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = actorID
}

func applyReschedule(a *models.Appointment, date *time.Time, clock string) {
	if date != nil {
		a.AppointmentDate = *date
	}
	if clock != "" {
		a.AppointmentTime = clock
	}
	a.Status = models.StatusPending
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts an ISO date or timestamp.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("Invalid appointment date")
}
