// Package notify turns lifecycle intents into emails and in-app
// notifications.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

const dateLayout = "Monday, January 2, 2006"

// Registrar accepts side-effect handlers. *dispatch.Queue implements it.
type Registrar interface {
	On(event dispatch.Event, name string, fn dispatch.Handler)
}

// Notifier sends the emails and in-app notifications of each intent.
type Notifier struct {
	users         store.Users
	doctors       store.Doctors
	notifications store.Notifications
	email         EmailSender
	templates     *TemplateEngine
	loginURL      string
	log           zerolog.Logger
}

// NewNotifier creates a Notifier. loginURL is linked from approval emails.
func NewNotifier(s *store.Store, email EmailSender, loginURL string, log zerolog.Logger) *Notifier {
	return &Notifier{
		users:         s.Users,
		doctors:       s.Doctors,
		notifications: s.Notifications,
		email:         email,
		templates:     NewTemplateEngine(),
		loginURL:      strings.TrimRight(loginURL, "/") + "/login",
		log:           log.With().Str("component", "notify").Logger(),
	}
}

// Register subscribes the notifier's handlers.
func (n *Notifier) Register(r Registrar) {
	r.On(dispatch.AppointmentCreated, "email-patient", n.bookingConfirmation)
	r.On(dispatch.AppointmentCreated, "email-doctor", n.doctorNewAppointment)
	r.On(dispatch.AppointmentCreated, "inapp-doctor", n.inAppNewAppointment)
	r.On(dispatch.AppointmentCancelled, "email-counterparty", n.cancellationEmail)
	r.On(dispatch.AppointmentCancelled, "inapp-counterparty", n.inAppCancellation)
	r.On(dispatch.AppointmentRescheduled, "email-patient", n.rescheduledEmail)
	r.On(dispatch.AppointmentRescheduled, "inapp-counterparty", n.inAppRescheduled)
	r.On(dispatch.AppointmentReminder, "email-patient", n.reminderEmail)
	r.On(dispatch.AppointmentReminder, "inapp-patient", n.inAppReminder)
	r.On(dispatch.ReviewReceived, "inapp-doctor", n.inAppReview)
	r.On(dispatch.PrescriptionIssued, "email-patient", n.prescriptionEmail)
	r.On(dispatch.PrescriptionIssued, "inapp-patient", n.inAppPrescription)
	r.On(dispatch.DoctorApproved, "email", n.approvalEmail)
	r.On(dispatch.DoctorApproved, "inapp", n.inAppApproval)
	r.On(dispatch.DoctorRejected, "email", n.rejectionEmail)
}

// party is a recipient of a notification.
type party struct {
	userID string
	name   string
	email  string
}

func (n *Notifier) patientOf(a *models.Appointment) party {
	return party{userID: a.PatientID, name: a.PatientName, email: a.PatientEmail}
}

func (n *Notifier) doctorOf(ctx context.Context, doctorID string) (party, error) {
	profile, err := n.doctors.Get(ctx, doctorID)
	if err != nil {
		return party{}, fmt.Errorf("load doctor %s: %w", doctorID, err)
	}
	user, err := n.users.Get(ctx, profile.UserID)
	if err != nil {
		return party{}, fmt.Errorf("load doctor account %s: %w", profile.UserID, err)
	}
	return party{userID: user.ID, name: user.Name, email: user.Email}, nil
}

// counterparty is the side of the appointment that did not act.
func (n *Notifier) counterparty(ctx context.Context, in dispatch.Intent) (party, error) {
	if in.ActorID == in.Appointment.PatientID {
		return n.doctorOf(ctx, in.Appointment.DoctorID)
	}
	return n.patientOf(in.Appointment), nil
}

func (n *Notifier) send(ctx context.Context, to party, tpl string, data EmailData) error {
	if to.email == "" {
		return fmt.Errorf("no email address for user %s", to.userID)
	}
	data.Name = to.name
	subject, body, err := n.templates.Render(tpl, data)
	if err != nil {
		return err
	}
	n.log.Debug().Str("template", tpl).Str("user_id", to.userID).Msg("sending email")
	return n.email.SendEmail(ctx, to.email, subject, body)
}

func (n *Notifier) inApp(ctx context.Context, to party, kind models.NotificationType, title, message, link string) error {
	return n.notifications.Create(ctx, &models.Notification{
		UserID:  to.userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	})
}

func appointmentData(a *models.Appointment) EmailData {
	return EmailData{
		PatientName: a.PatientName,
		Date:        a.AppointmentDate.Format(dateLayout),
		Time:        a.AppointmentTime,
		Type:        string(a.AppointmentType),
	}
}

func appointmentLink(a *models.Appointment) string {
	return "/appointments/" + a.ID
}

func requireAppointment(in dispatch.Intent) error {
	if in.Appointment == nil {
		return fmt.Errorf("%s intent without appointment", in.Event)
	}
	return nil
}

func (n *Notifier) bookingConfirmation(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	return n.send(ctx, n.patientOf(in.Appointment), TplAppointmentConfirmation, appointmentData(in.Appointment))
}

func (n *Notifier) doctorNewAppointment(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	doctor, err := n.doctorOf(ctx, in.Appointment.DoctorID)
	if err != nil {
		return err
	}
	return n.send(ctx, doctor, TplDoctorNewAppointment, appointmentData(in.Appointment))
}

func (n *Notifier) inAppNewAppointment(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	doctor, err := n.doctorOf(ctx, in.Appointment.DoctorID)
	if err != nil {
		return err
	}
	a := in.Appointment
	msg := fmt.Sprintf("%s booked an appointment on %s at %s.", a.PatientName, a.AppointmentDate.Format(dateLayout), a.AppointmentTime)
	return n.inApp(ctx, doctor, models.NotificationAppointment, "New appointment", msg, appointmentLink(a))
}

func (n *Notifier) cancellationEmail(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	to, err := n.counterparty(ctx, in)
	if err != nil {
		return err
	}
	data := appointmentData(in.Appointment)
	data.Reason = in.Appointment.CancellationReason
	return n.send(ctx, to, TplAppointmentCancelled, data)
}

func (n *Notifier) inAppCancellation(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	to, err := n.counterparty(ctx, in)
	if err != nil {
		return err
	}
	a := in.Appointment
	msg := fmt.Sprintf("The appointment on %s at %s was cancelled: %s", a.AppointmentDate.Format(dateLayout), a.AppointmentTime, a.CancellationReason)
	return n.inApp(ctx, to, models.NotificationAppointment, "Appointment cancelled", msg, appointmentLink(a))
}

func (n *Notifier) rescheduledEmail(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	return n.send(ctx, n.patientOf(in.Appointment), TplAppointmentRescheduled, appointmentData(in.Appointment))
}

func (n *Notifier) inAppRescheduled(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	to, err := n.counterparty(ctx, in)
	if err != nil {
		return err
	}
	a := in.Appointment
	msg := fmt.Sprintf("The appointment was moved to %s at %s and awaits confirmation.", a.AppointmentDate.Format(dateLayout), a.AppointmentTime)
	return n.inApp(ctx, to, models.NotificationAppointment, "Appointment rescheduled", msg, appointmentLink(a))
}

func (n *Notifier) reminderEmail(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	data := appointmentData(in.Appointment)
	data.HoursBefore = in.HoursBefore
	return n.send(ctx, n.patientOf(in.Appointment), TplAppointmentReminder, data)
}

func (n *Notifier) inAppReminder(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	a := in.Appointment
	msg := fmt.Sprintf("You have an appointment in %d hour(s), on %s at %s.", in.HoursBefore, a.AppointmentDate.Format(dateLayout), a.AppointmentTime)
	return n.inApp(ctx, n.patientOf(a), models.NotificationReminder, "Appointment reminder", msg, appointmentLink(a))
}

func (n *Notifier) inAppReview(ctx context.Context, in dispatch.Intent) error {
	if in.Review == nil {
		return fmt.Errorf("%s intent without review", in.Event)
	}
	doctor, err := n.doctorOf(ctx, in.Review.DoctorID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("You received a %d-star review.", in.Review.Rating)
	return n.inApp(ctx, doctor, models.NotificationReview, "New review", msg, "/reviews/"+in.Review.ID)
}

func (n *Notifier) prescriptionEmail(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	if in.Prescription == nil {
		return fmt.Errorf("%s intent without prescription", in.Event)
	}
	rx := in.Prescription
	data := EmailData{
		Medications:  rx.Medications,
		Instructions: rx.Instructions,
	}
	if rx.FollowUpDate != nil {
		data.FollowUpDate = rx.FollowUpDate.Format(dateLayout)
	}
	return n.send(ctx, n.patientOf(in.Appointment), TplPrescription, data)
}

func (n *Notifier) inAppPrescription(ctx context.Context, in dispatch.Intent) error {
	if err := requireAppointment(in); err != nil {
		return err
	}
	if in.Prescription == nil {
		return fmt.Errorf("%s intent without prescription", in.Event)
	}
	msg := fmt.Sprintf("A prescription with %d medication(s) was issued for your appointment.", len(in.Prescription.Medications))
	return n.inApp(ctx, n.patientOf(in.Appointment), models.NotificationPrescription, "New prescription", msg, "/prescriptions/"+in.Prescription.ID)
}

func accountParty(in dispatch.Intent) (party, error) {
	if in.Account == nil {
		return party{}, fmt.Errorf("%s intent without account", in.Event)
	}
	return party{userID: in.Account.ID, name: in.Account.Name, email: in.Account.Email}, nil
}

func (n *Notifier) approvalEmail(ctx context.Context, in dispatch.Intent) error {
	to, err := accountParty(in)
	if err != nil {
		return err
	}
	data := EmailData{LoginURL: n.loginURL}
	if profile, err := n.doctors.GetByUserID(ctx, to.userID); err == nil {
		data.Specialization = profile.Specialization
		data.Qualification = profile.Qualification
	}
	return n.send(ctx, to, TplDoctorApproved, data)
}

func (n *Notifier) inAppApproval(ctx context.Context, in dispatch.Intent) error {
	to, err := accountParty(in)
	if err != nil {
		return err
	}
	return n.inApp(ctx, to, models.NotificationApproval, "Registration approved",
		"Your doctor registration has been approved. You can now manage your profile and appointments.", "/profile")
}

func (n *Notifier) rejectionEmail(ctx context.Context, in dispatch.Intent) error {
	to, err := accountParty(in)
	if err != nil {
		return err
	}
	return n.send(ctx, to, TplDoctorRejected, EmailData{Reason: in.Reason})
}
