// Package access decides whether an authenticated account may perform an
// operation on a booking, review, prescription or account.
//
// Every check runs the status gate first: a non-approved account is refused
// with an "awaiting approval" error before any role rule is consulted.
// Unmatched combinations are denied.
package access

import (
	"context"
	"errors"

	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// Operation names an action on an appointment.
type Operation string

const (
	OpRead       Operation = "read"
	OpCancel     Operation = "cancel"
	OpReschedule Operation = "reschedule"
	OpComplete   Operation = "complete"
	OpConfirm    Operation = "confirm"
	OpAddNotes   Operation = "add-notes"
	OpPrescribe  Operation = "prescribe"
	OpUpdate     Operation = "update"
)

// Ownership tells the caller which relation granted access.
type Ownership int

const (
	OwnerNone Ownership = iota
	OwnerAdmin
	OwnerPatient
	OwnerDoctor
)

// Actor is the authenticated account performing a request.
type Actor struct {
	ID     string
	Role   models.Role
	Status models.AccountStatus
}

// ActorFromUser builds an Actor from a stored account.
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Status: u.Status}
}

// DoctorResolver finds the doctor profile owned by an account.
type DoctorResolver interface {
	GetByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error)
}

// Decision is the outcome of an appointment authorization.
type Decision struct {
	Owner  Ownership
	Doctor *models.DoctorProfile // set when Owner is OwnerDoctor
}

// Policy evaluates the access rules.
type Policy struct {
	doctors DoctorResolver
}

// NewPolicy creates a Policy.
func NewPolicy(doctors DoctorResolver) *Policy {
	return &Policy{doctors: doctors}
}

var (
	errNotApproved = apperr.NotApproved("Your account is awaiting approval")
	errNoProfile   = apperr.NotFound("Doctor profile not found").WithCode(apperr.CodeDoctorProfileNotFound)
)

// patientOps and doctorOps list what an owning party may do.
var (
	patientOps = map[Operation]bool{OpRead: true, OpCancel: true, OpReschedule: true}
	doctorOps  = map[Operation]bool{
		OpRead: true, OpCancel: true, OpReschedule: true, OpComplete: true,
		OpConfirm: true, OpAddNotes: true, OpPrescribe: true,
	}
	adminOps = map[Operation]bool{
		OpRead: true, OpCancel: true, OpReschedule: true, OpComplete: true,
		OpConfirm: true, OpUpdate: true,
	}
)

// CheckStatus is the status gate.
func (p *Policy) CheckStatus(actor Actor) error {
	if actor.Status != models.AccountApproved {
		return errNotApproved
	}
	return nil
}

// ResolveDoctor returns the profile of a doctor actor.
func (p *Policy) ResolveDoctor(ctx context.Context, actor Actor) (*models.DoctorProfile, error) {
	if err := p.CheckStatus(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleDoctor {
		return nil, apperr.Forbidden("Only doctors can perform this action")
	}
	profile, err := p.doctors.GetByUserID(ctx, actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNoProfile
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return profile, nil
}

// AuthorizeCreateAppointment allows only approved patients to book.
func (p *Policy) AuthorizeCreateAppointment(actor Actor) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	if actor.Role != models.RolePatient {
		return apperr.Forbidden("Only patients can book appointments")
	}
	return nil
}

// AuthorizeAppointment checks op on appt for actor.
func (p *Policy) AuthorizeAppointment(ctx context.Context, actor Actor, op Operation, appt *models.Appointment) (Decision, error) {
	if err := p.CheckStatus(actor); err != nil {
		return Decision{}, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		if adminOps[op] {
			return Decision{Owner: OwnerAdmin}, nil
		}
		if op == OpAddNotes || op == OpPrescribe {
			return Decision{}, apperr.Forbidden("Only the assigned doctor can perform this action")
		}

	case models.RolePatient:
		if !patientOps[op] {
			return Decision{}, apperr.Forbidden("Patients cannot perform this action")
		}
		if appt.PatientID == actor.ID {
			return Decision{Owner: OwnerPatient}, nil
		}
		return Decision{}, apperr.Forbidden("Not authorized to access this appointment")

	case models.RoleDoctor:
		profile, err := p.ResolveDoctor(ctx, actor)
		if err != nil {
			return Decision{}, err
		}
		if !doctorOps[op] {
			return Decision{}, apperr.Forbidden("Doctors cannot perform this action")
		}
		if appt.DoctorID == profile.ID {
			return Decision{Owner: OwnerDoctor, Doctor: profile}, nil
		}
		return Decision{}, apperr.Forbidden("Not authorized to access this appointment")
	}

	return Decision{}, apperr.Forbidden("Not authorized to perform this action")
}

// AuthorizeCreateReview allows the owning patient to review a completed appointment.
func (p *Policy) AuthorizeCreateReview(actor Actor, appt *models.Appointment) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	if actor.Role != models.RolePatient {
		return apperr.Forbidden("Only patients can submit reviews")
	}
	if appt.PatientID != actor.ID {
		return apperr.Forbidden("You can only review your own appointments")
	}
	if appt.Status != models.StatusCompleted {
		return apperr.Validation("You can only review completed appointments")
	}
	return nil
}

// AuthorizeReviewChange allows the author or an admin to edit or delete a review.
func (p *Policy) AuthorizeReviewChange(actor Actor, review *models.Review) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if actor.Role == models.RolePatient && review.PatientID == actor.ID {
		return nil
	}
	return apperr.Forbidden("Not authorized to modify this review")
}

// AuthorizeModerateReview allows admins only.
func (p *Policy) AuthorizeModerateReview(actor Actor) error {
	return p.RequireRole(actor, models.RoleAdmin)
}

// AuthorizePrescriptionRead allows the patient, the authoring doctor and admins.
func (p *Policy) AuthorizePrescriptionRead(actor Actor, rx *models.Prescription) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	switch {
	case actor.Role == models.RoleAdmin,
		actor.Role == models.RolePatient && rx.PatientID == actor.ID,
		actor.Role == models.RoleDoctor && rx.DoctorID == actor.ID:
		return nil
	}
	return apperr.Forbidden("Not authorized to view this prescription")
}

// AuthorizePrescriptionUpdate allows only the authoring doctor.
func (p *Policy) AuthorizePrescriptionUpdate(actor Actor, rx *models.Prescription) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	if actor.Role == models.RoleDoctor && rx.DoctorID == actor.ID {
		return nil
	}
	return apperr.Forbidden("Only the prescribing doctor can update this prescription")
}

// AuthorizeDeleteUser allows admins to delete any account except another admin.
func (p *Policy) AuthorizeDeleteUser(actor Actor, target *models.User) error {
	if err := p.RequireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		return apperr.Forbidden("Cannot delete admin users")
	}
	return nil
}

// RequireRole passes the status gate and checks the actor holds one of roles.
func (p *Policy) RequireRole(actor Actor, roles ...models.Role) error {
	if err := p.CheckStatus(actor); err != nil {
		return err
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("You do not have permission to perform this action")
}
