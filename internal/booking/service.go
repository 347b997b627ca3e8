// Package booking owns the appointment lifecycle: booking, confirmation,
// cancellation, rescheduling, completion, consultation notes and
// prescriptions.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// Service implements the appointment operations.
type Service struct {
	appointments  store.Appointments
	doctors       store.Doctors
	users         store.Users
	prescriptions store.Prescriptions
	policy        *access.Policy
	dispatcher    dispatch.Dispatcher
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
}

// NewService creates a booking Service.
func NewService(s *store.Store, policy *access.Policy, d dispatch.Dispatcher, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		appointments:  s.Appointments,
		doctors:       s.Doctors,
		users:         s.Users,
		prescriptions: s.Prescriptions,
		policy:        policy,
		dispatcher:    d,
		metrics:       m,
		log:           log.With().Str("component", "booking").Logger(),
		now:           time.Now,
	}
}

// CreateInput is a booking request.
type CreateInput struct {
	DoctorID        string
	AppointmentDate string
	AppointmentTime string
	AppointmentType models.AppointmentType
	Symptoms        string
	PatientPhone    string
}

// UpdateInput carries the fields an admin may change. Nil fields are kept.
type UpdateInput struct {
	AppointmentDate *string
	AppointmentTime *string
	AppointmentType *models.AppointmentType
	Status          *models.AppointmentStatus
	Symptoms        *string
	Notes           *string
}

func (s *Service) emit(a models.Appointment, e dispatch.Event, actorID string) {
	s.dispatcher.Dispatch(dispatch.Intent{Event: e, Appointment: &a, ActorID: actorID})
}

func (s *Service) load(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := s.appointments.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) save(ctx context.Context, a *models.Appointment) error {
	err := s.appointments.Update(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrStaleWrite):
		return apperr.Conflict("Appointment was modified by another request, please retry").WithCode(apperr.CodeStaleWrite)
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Appointment not found")
	}
	return apperr.Internal(err)
}

// authorized loads id and authorizes op on it.
func (s *Service) authorized(ctx context.Context, actor access.Actor, op access.Operation, id string) (*models.Appointment, access.Decision, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, access.Decision{}, err
	}
	d, err := s.policy.AuthorizeAppointment(ctx, actor, op, a)
	if err != nil {
		return nil, access.Decision{}, err
	}
	return a, d, nil
}

// CreateAppointment books an appointment for the acting patient.
func (s *Service) CreateAppointment(ctx context.Context, actor access.Actor, in CreateInput) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("create", err) }()

	if err := s.policy.AuthorizeCreateAppointment(actor); err != nil {
		return nil, err
	}
	if in.DoctorID == "" {
		return nil, apperr.Validation("Doctor is required")
	}
	date, err := ParseDate(in.AppointmentDate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.AppointmentTime) == "" {
		return nil, apperr.Validation("Appointment time is required")
	}
	switch in.AppointmentType {
	case "":
		in.AppointmentType = models.TypeInClinic
	case models.TypeOnline, models.TypeInClinic:
	default:
		return nil, apperr.Validation("Appointment type must be online or in-clinic")
	}

	if _, err := s.doctors.Get(ctx, in.DoctorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Doctor not found")
		}
		return nil, apperr.Internal(err)
	}
	patient, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthenticated("User not found")
		}
		return nil, apperr.Internal(err)
	}
	phone := patient.Phone
	if in.PatientPhone != "" {
		phone = in.PatientPhone
	}

	appt = &models.Appointment{
		DoctorID:        in.DoctorID,
		PatientID:       actor.ID,
		PatientName:     patient.Name,
		PatientEmail:    patient.Email,
		PatientPhone:    phone,
		AppointmentDate: date,
		AppointmentTime: strings.TrimSpace(in.AppointmentTime),
		AppointmentType: in.AppointmentType,
		Status:          models.StatusPending,
		Symptoms:        in.Symptoms,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info().Str("appointment_id", appt.ID).Str("doctor_id", appt.DoctorID).Msg("appointment created")
	s.emit(*appt, dispatch.AppointmentCreated, actor.ID)
	return appt, nil
}

// Get returns one appointment visible to actor.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*models.Appointment, error) {
	a, _, err := s.authorized(ctx, actor, access.OpRead, id)
	return a, err
}

// ListAll returns every appointment (admin).
func (s *Service) ListAll(ctx context.Context, actor access.Actor) ([]models.Appointment, error) {
	if err := s.policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	out, err := s.appointments.List(ctx, store.AppointmentFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListMine returns the acting patient's appointments.
func (s *Service) ListMine(ctx context.Context, actor access.Actor) ([]models.Appointment, error) {
	if err := s.policy.RequireRole(actor, models.RolePatient); err != nil {
		return nil, err
	}
	out, err := s.appointments.List(ctx, store.AppointmentFilter{PatientID: actor.ID})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListForDoctor returns the appointments of the acting doctor's profile.
func (s *Service) ListForDoctor(ctx context.Context, actor access.Actor) ([]models.Appointment, error) {
	profile, err := s.policy.ResolveDoctor(ctx, actor)
	if err != nil {
		return nil, err
	}
	out, err := s.appointments.List(ctx, store.AppointmentFilter{DoctorID: profile.ID})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, actor access.Actor, id string) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("confirm", err) }()

	a, _, err := s.authorized(ctx, actor, access.OpConfirm, id)
	if err != nil {
		return nil, err
	}
	if err := checkConfirm(a); err != nil {
		return nil, err
	}
	a.Status = models.StatusConfirmed
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel cancels a pending or confirmed appointment. Either the owning
// patient or the owning doctor may cancel.
func (s *Service) Cancel(ctx context.Context, actor access.Actor, id, reason string) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("cancel", err) }()

	a, _, err := s.authorized(ctx, actor, access.OpCancel, id)
	if err != nil {
		return nil, err
	}
	if err := checkCancel(a); err != nil {
		return nil, err
	}
	applyCancel(a, actor.ID, strings.TrimSpace(reason), s.now())
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().Str("appointment_id", a.ID).Str("cancelled_by", actor.ID).Msg("appointment cancelled")
	s.emit(*a, dispatch.AppointmentCancelled, actor.ID)
	return a, nil
}

// Reschedule moves an appointment and sends it back to pending for reconfirmation.
func (s *Service) Reschedule(ctx context.Context, actor access.Actor, id, date, clock string) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("reschedule", err) }()

	a, _, err := s.authorized(ctx, actor, access.OpReschedule, id)
	if err != nil {
		return nil, err
	}
	if err := checkReschedule(a); err != nil {
		return nil, err
	}
	var newDate *time.Time
	if date != "" {
		d, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		newDate = &d
	}
	applyReschedule(a, newDate, strings.TrimSpace(clock))
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	s.emit(*a, dispatch.AppointmentRescheduled, actor.ID)
	return a, nil
}

// Complete marks an appointment completed. Completing twice is a no-op.
func (s *Service) Complete(ctx context.Context, actor access.Actor, id string) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("complete", err) }()

	a, _, err := s.authorized(ctx, actor, access.OpComplete, id)
	if err != nil {
		return nil, err
	}
	if err := checkComplete(a); err != nil {
		return nil, err
	}
	if a.Status == models.StatusCompleted {
		return a, nil
	}
	a.Status = models.StatusCompleted
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AddConsultationNotes overwrites the notes of an appointment (owning doctor).
func (s *Service) AddConsultationNotes(ctx context.Context, actor access.Actor, id, notes string) (*models.Appointment, error) {
	a, _, err := s.authorized(ctx, actor, access.OpAddNotes, id)
	if err != nil {
		return nil, err
	}
	a.Notes = notes
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAppointment applies an admin edit. Status changes must follow the lifecycle graph.
func (s *Service) UpdateAppointment(ctx context.Context, actor access.Actor, id string, in UpdateInput) (appt *models.Appointment, err error) {
	defer func() { s.metrics.Transition("update", err) }()

	a, _, err := s.authorized(ctx, actor, access.OpUpdate, id)
	if err != nil {
		return nil, err
	}

	cancelled := false
	if in.Status != nil && *in.Status != a.Status {
		to := *in.Status
		if !to.Valid() {
			return nil, apperr.Validation("Invalid appointment status")
		}
		if !CanTransition(a.Status, to) {
			return nil, invalidTransition("Cannot change status from %s to %s", a.Status, to)
		}
		if to == models.StatusCancelled {
			applyCancel(a, actor.ID, "", s.now())
			cancelled = true
		} else {
			a.Status = to
		}
	}
	if (in.AppointmentDate != nil || in.AppointmentTime != nil) && a.Status.Terminal() {
		return nil, invalidTransition("Cannot reschedule a %s appointment", a.Status)
	}
	if in.AppointmentDate != nil {
		d, err := ParseDate(*in.AppointmentDate)
		if err != nil {
			return nil, err
		}
		a.AppointmentDate = d
	}
	if in.AppointmentTime != nil {
		if strings.TrimSpace(*in.AppointmentTime) == "" {
			return nil, apperr.Validation("Appointment time is required")
		}
		a.AppointmentTime = strings.TrimSpace(*in.AppointmentTime)
	}
	if in.AppointmentType != nil {
		if *in.AppointmentType != models.TypeOnline && *in.AppointmentType != models.TypeInClinic {
			return nil, apperr.Validation("Appointment type must be online or in-clinic")
		}
		a.AppointmentType = *in.AppointmentType
	}
	if in.Symptoms != nil {
		a.Symptoms = *in.Symptoms
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}

	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	if cancelled {
		s.emit(*a, dispatch.AppointmentCancelled, actor.ID)
	}
	return a, nil
}
