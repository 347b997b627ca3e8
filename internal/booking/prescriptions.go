package booking

import (
	"context"
	"errors"
	"time"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// PrescriptionInput is a prescription issued against an appointment.
type PrescriptionInput struct {
	AppointmentID string
	Medications   []models.Medication
	Instructions  string
	FollowUpDate  *time.Time
}

// PrescriptionUpdate carries editable prescription fields. Nil fields are kept.
type PrescriptionUpdate struct {
	Medications  []models.Medication
	Instructions *string
	FollowUpDate *time.Time
}

func validateMedications(meds []models.Medication) error {
	if len(meds) == 0 {
		return apperr.Validation("At least one medication is required")
	}
	for _, m := range meds {
		if m.Name == "" || m.Dosage == "" || m.Frequency == "" || m.Duration == "" {
			return apperr.Validation("Each medication needs name, dosage, frequency and duration")
		}
	}
	return nil
}

// CreatePrescription issues a prescription for an appointment of the acting
// doctor and links it on the appointment. An appointment holds at most one.
func (s *Service) CreatePrescription(ctx context.Context, actor access.Actor, in PrescriptionInput) (rx *models.Prescription, err error) {
	defer func() { s.metrics.Transition("prescribe", err) }()

	if err := validateMedications(in.Medications); err != nil {
		return nil, err
	}
	a, _, err := s.authorized(ctx, actor, access.OpPrescribe, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := checkPrescribe(a); err != nil {
		return nil, err
	}

	rx = &models.Prescription{
		AppointmentID: a.ID,
		DoctorID:      actor.ID,
		PatientID:     a.PatientID,
		Medications:   in.Medications,
		Instructions:  in.Instructions,
		FollowUpDate:  in.FollowUpDate,
	}
	rx.EnsureID()

	// The versioned link write admits one prescription per appointment.
	a.PrescriptionID = rx.ID
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	if err := s.prescriptions.Create(ctx, rx); err != nil {
		s.unlinkPrescription(ctx, a.ID, rx.ID)
		return nil, apperr.Internal(err)
	}

	snap := *a
	rxSnap := *rx
	s.dispatcher.Dispatch(dispatch.Intent{
		Event:        dispatch.PrescriptionIssued,
		Appointment:  &snap,
		Prescription: &rxSnap,
		ActorID:      actor.ID,
	})
	return rx, nil
}

func (s *Service) unlinkPrescription(ctx context.Context, appointmentID, rxID string) {
	a, err := s.appointments.Get(ctx, appointmentID)
	if err == nil && a.PrescriptionID == rxID {
		a.PrescriptionID = ""
		err = s.appointments.Update(ctx, a)
	}
	if err != nil {
		s.log.Error().Err(err).Str("appointment_id", appointmentID).Msg("failed to unlink prescription")
	}
}

func (s *Service) loadPrescription(ctx context.Context, id string) (*models.Prescription, error) {
	rx, err := s.prescriptions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Prescription not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rx, nil
}

// ListPrescriptions returns the patient's own or the doctor's authored prescriptions.
func (s *Service) ListPrescriptions(ctx context.Context, actor access.Actor) ([]models.Prescription, error) {
	if err := s.policy.CheckStatus(actor); err != nil {
		return nil, err
	}
	var f store.PrescriptionFilter
	switch actor.Role {
	case models.RolePatient:
		f.PatientID = actor.ID
	case models.RoleDoctor:
		f.DoctorID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, apperr.Forbidden("Not authorized to view prescriptions")
	}
	out, err := s.prescriptions.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// GetPrescription returns one prescription visible to actor.
func (s *Service) GetPrescription(ctx context.Context, actor access.Actor, id string) (*models.Prescription, error) {
	rx, err := s.loadPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizePrescriptionRead(actor, rx); err != nil {
		return nil, err
	}
	return rx, nil
}

// UpdatePrescription edits a prescription (authoring doctor).
func (s *Service) UpdatePrescription(ctx context.Context, actor access.Actor, id string, in PrescriptionUpdate) (*models.Prescription, error) {
	rx, err := s.loadPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizePrescriptionUpdate(actor, rx); err != nil {
		return nil, err
	}
	if in.Medications != nil {
		if err := validateMedications(in.Medications); err != nil {
			return nil, err
		}
		rx.Medications = in.Medications
	}
	if in.Instructions != nil {
		rx.Instructions = *in.Instructions
	}
	if in.FollowUpDate != nil {
		rx.FollowUpDate = in.FollowUpDate
	}
	if err := s.prescriptions.Update(ctx, rx); err != nil {
		return nil, apperr.Internal(err)
	}
	return rx, nil
}
