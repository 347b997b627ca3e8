package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"healthcare-booking-server/internal/models"
)

// Built-in template ids.
const (
	TplAppointmentConfirmation = "appointment-confirmation"
	TplDoctorNewAppointment    = "doctor-new-appointment"
	TplAppointmentCancelled    = "appointment-cancelled"
	TplAppointmentRescheduled  = "appointment-rescheduled"
	TplAppointmentReminder     = "appointment-reminder"
	TplPrescription            = "prescription"
	TplDoctorApproved          = "doctor-approved"
	TplDoctorRejected          = "doctor-rejected"
)

// EmailData is the data every template renders from. Templates use the
// fields they need.
type EmailData struct {
	Name           string
	PatientName    string
	Date           string
	Time           string
	Type           string
	Reason         string
	HoursBefore    int
	Specialization string
	Qualification  string
	LoginURL       string
	Medications    []models.Medication
	Instructions   string
	FollowUpDate   string
}

// Template is an email subject and HTML body.
type Template struct {
	ID      string
	Subject string
	Body    string
}

type compiled struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// TemplateEngine renders the registered email templates.
type TemplateEngine struct {
	templates map[string]compiled
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: map[string]compiled{}}
	for _, t := range builtIn {
		if err := e.Register(t); err != nil {
			panic(err)
		}
	}
	return e
}

// Register parses and adds a template, replacing one with the same id.
func (e *TemplateEngine) Register(t Template) error {
	subject, err := texttemplate.New(t.ID).Parse(t.Subject)
	if err != nil {
		return fmt.Errorf("parse subject of %q: %w", t.ID, err)
	}
	body, err := htmltemplate.New(t.ID).Parse(t.Body)
	if err != nil {
		return fmt.Errorf("parse body of %q: %w", t.ID, err)
	}
	e.templates[t.ID] = compiled{subject: subject, body: body}
	return nil
}

// Render executes template id with data.
func (e *TemplateEngine) Render(id string, data EmailData) (subject, body string, err error) {
	t, ok := e.templates[id]
	if !ok {
		return "", "", fmt.Errorf("template %q not found", id)
	}
	var sb, bb bytes.Buffer
	if err := t.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render subject of %q: %w", id, err)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render body of %q: %w", id, err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}

var builtIn = []Template{
	{
		ID:      TplAppointmentConfirmation,
		Subject: "Appointment Confirmation",
		Body: `<h2>Appointment Booked</h2>
<p>Dear {{.Name}},</p>
<p>Your appointment has been booked.</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Type:</strong> {{.Type}}</p>
<p>Thank you for choosing our services.</p>`,
	},
	{
		ID:      TplDoctorNewAppointment,
		Subject: "New Appointment Booking",
		Body: `<h2>New Appointment</h2>
<p>Dear {{.Name}},</p>
<p>You have a new appointment booking.</p>
<p><strong>Patient:</strong> {{.PatientName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Type:</strong> {{.Type}}</p>`,
	},
	{
		ID:      TplAppointmentCancelled,
		Subject: "Appointment Cancelled",
		Body: `<h2>Appointment Cancelled</h2>
<p>Dear {{.Name}},</p>
<p>Your appointment has been cancelled.</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
<p>If you need to reschedule, please book a new appointment.</p>`,
	},
	{
		ID:      TplAppointmentRescheduled,
		Subject: "Appointment Rescheduled",
		Body: `<h2>Appointment Rescheduled</h2>
<p>Dear {{.Name}},</p>
<p>Your appointment has been rescheduled and is awaiting confirmation:</p>
<p><strong>New Date:</strong> {{.Date}}</p>
<p><strong>New Time:</strong> {{.Time}}</p>
<p><strong>Type:</strong> {{.Type}}</p>
<p>Please update your calendar accordingly.</p>`,
	},
	{
		ID:      TplAppointmentReminder,
		Subject: "Appointment Reminder - {{.HoursBefore}} Hour{{if gt .HoursBefore 1}}s{{end}} Before",
		Body: `<h2>Appointment Reminder</h2>
<p>Dear {{.Name}},</p>
<p>This is a reminder that you have an appointment scheduled:</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Type:</strong> {{.Type}}</p>
<p>Please make sure to be available at the scheduled time.</p>`,
	},
	{
		ID:      TplPrescription,
		Subject: "Your Prescription",
		Body: `<h2>Prescription</h2>
<p>Dear {{.Name}},</p>
<p>Please find your prescription below:</p>
<h3>Medications:</h3>
<ul>{{range .Medications}}<li>{{.Name}} - {{.Dosage}}, {{.Frequency}}, {{.Duration}}</li>{{end}}</ul>
{{if .Instructions}}<p><strong>Instructions:</strong> {{.Instructions}}</p>{{end}}
{{if .FollowUpDate}}<p><strong>Follow-up Date:</strong> {{.FollowUpDate}}</p>{{end}}
<p>Please follow the prescription as directed by your doctor.</p>`,
	},
	{
		ID:      TplDoctorApproved,
		Subject: "Doctor Registration Approved",
		Body: `<h2>Your Doctor Registration Has Been Approved</h2>
<p>Dear {{.Name}},</p>
<p>Your doctor registration request has been approved.</p>
{{if .Specialization}}<p><strong>Specialization:</strong> {{.Specialization}}</p>{{end}}
<p>You can now log in and manage your profile and appointments.</p>
{{if .LoginURL}}<p>Login at: {{.LoginURL}}</p>{{end}}`,
	},
	{
		ID:      TplDoctorRejected,
		Subject: "Doctor Registration Status",
		Body: `<h2>Doctor Registration Update</h2>
<p>Dear {{.Name}},</p>
<p>Your doctor registration request has been reviewed and we are unable to approve it at this time.</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
<p>If you have any questions, please contact our support team.</p>`,
	},
}
